package main

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/episode-owl/internal/bootstrap"
	"github.com/Guilhem-Bonnet/episode-owl/internal/config"
	"github.com/Guilhem-Bonnet/episode-owl/internal/logging"
)

type commandContext struct {
	configFlag string
	verbose    bool
	noColor    bool

	// Options passées à bootstrap.Open (les tests y injectent une fausse source).
	bootstrapOpts []bootstrap.Option

	configOnce sync.Once
	config     config.Config
	configErr  error

	env       *bootstrap.Env
	logCloser io.Closer
}

func newCommandContext(opts ...bootstrap.Option) *commandContext {
	return &commandContext{bootstrapOpts: opts}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureEnv opens storage and builds the session on first use.
func (c *commandContext) ensureEnv(ctx context.Context) (*bootstrap.Env, error) {
	if c.env != nil {
		return c.env, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.newLogger(cfg)
	if err != nil {
		return nil, err
	}
	env, err := bootstrap.Open(ctx, cfg, logger, c.bootstrapOpts...)
	if err != nil {
		return nil, err
	}
	c.env = env
	return env, nil
}

// newLogger keeps the terminal quiet unless --verbose; the log file, when
// configured, still gets the configured level.
func (c *commandContext) newLogger(cfg config.Config) (zerolog.Logger, error) {
	logCfg := cfg.Logging
	if c.verbose {
		logCfg.Level = "debug"
	} else if logCfg.File == "" {
		logCfg.Level = "warn"
	}
	logger, closer, err := logging.New(logCfg, os.Stderr, "owl")
	if err != nil {
		return zerolog.Nop(), err
	}
	c.logCloser = closer
	return logger, nil
}

func (c *commandContext) close() {
	if c.env != nil {
		_ = c.env.Close()
		c.env = nil
	}
	if c.logCloser != nil {
		_ = c.logCloser.Close()
		c.logCloser = nil
	}
}

func (c *commandContext) setupColor(out io.Writer) {
	if c.noColor {
		color.NoColor = true
		return
	}
	f, ok := out.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		color.NoColor = true
	}
}
