package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

// FormatTimelineLine renders an entry as "date | show | code | title".
// dateFormat is a Go time layout; empty means domain.DateLayout.
func FormatTimelineLine(e domain.NotificationEntry, dateFormat string) string {
	if strings.TrimSpace(dateFormat) == "" {
		dateFormat = domain.DateLayout
	}
	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = "TBA"
	}
	return fmt.Sprintf("%s | %s | %s | %s", e.DiscoveredOn.Format(dateFormat), e.ShowName, e.Position.Code(), title)
}

// TimelineExporter writes the unwatched timeline as a plain text file, one
// FormatTimelineLine per entry, newest first.
type TimelineExporter struct {
	logger   zerolog.Logger
	fs       afero.Fs
	source   TimelineReader
	bus      ports.EventBus
	path     string
	settings domain.Settings
}

// TimelineReader is the read side of TrackingSession used by the exporter.
type TimelineReader interface {
	Timeline(ctx context.Context, q TimelineQuery) ([]domain.NotificationEntry, error)
}

func NewTimelineExporter(logger zerolog.Logger, fs afero.Fs, source TimelineReader, bus ports.EventBus, path string, settings domain.Settings) *TimelineExporter {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &TimelineExporter{logger: logger, fs: fs, source: source, bus: bus, path: path, settings: settings}
}

// Export rewrites the export file and returns how many lines were written.
func (x *TimelineExporter) Export(ctx context.Context) (int, error) {
	return x.ExportTo(ctx, x.path)
}

// Path is the configured export file.
func (x *TimelineExporter) Path() string { return x.path }

// ExportTo writes the unwatched timeline to path instead of the configured file.
func (x *TimelineExporter) ExportTo(ctx context.Context, path string) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, fmt.Errorf("missing export path")
	}
	entries, err := x.source.Timeline(ctx, TimelineQuery{Limit: -1})
	if err != nil {
		return 0, err
	}

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(FormatTimelineLine(e, x.settings.DateFormat))
		b.WriteByte('\n')
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := x.fs.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create export dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := afero.WriteFile(x.fs, tmp, []byte(b.String()), 0o644); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	if err := x.fs.Rename(tmp, path); err != nil {
		return 0, fmt.Errorf("write export: %w", err)
	}
	return len(entries), nil
}

// Run keeps the export file in sync with the timeline: it rewrites it after
// every check run and every watched-marking.
func (x *TimelineExporter) Run(ctx context.Context) {
	if x == nil || x.bus == nil || x.source == nil || x.path == "" {
		return
	}
	ch, cancel := x.bus.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			x.logger.Info().Msg("timeline exporter stopped")
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			x.handleEvent(ctx, evt)
		}
	}
}

func (x *TimelineExporter) handleEvent(ctx context.Context, evt ports.Event) {
	switch evt.Topic {
	case ports.TopicCheckCompleted, ports.TopicTimelineMarked:
	default:
		return
	}
	n, err := x.Export(ctx)
	if err != nil {
		x.logger.Warn().Err(err).Str("path", x.path).Msg("timeline export failed")
		return
	}
	x.logger.Debug().Int("lines", n).Str("path", x.path).Msg("timeline exported")
}
