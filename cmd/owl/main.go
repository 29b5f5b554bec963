package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cc := newCommandContext()
	err := newRootCommand(cc).ExecuteContext(ctx)
	cc.close()
	stop()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, formatError(err))
		}
		os.Exit(1)
	}
}

// formatError prefixes errors from the tracking core with their stable code.
func formatError(err error) string {
	code := app.ErrorCode(err)
	if code == "" || code == "internal" {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("error [%s]: %s", code, err.Error())
}
