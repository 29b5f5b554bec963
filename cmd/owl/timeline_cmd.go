package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/bootstrap"
)

func newTimelineCommand(ctx *commandContext) *cobra.Command {
	var (
		all   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:     "timeline",
		Aliases: []string{"tl"},
		Short:   "Show newly discovered episodes, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := env.Session.Timeline(cmd.Context(), app.TimelineQuery{IncludeWatched: all, Limit: limit})
			if err != nil {
				return err
			}
			printTimeline(cmd.OutOrStdout(), entries, env.Session.Settings().DateFormat)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include watched entries")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show (0 = configured max, -1 = everything)")
	return cmd
}

func newMarkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark [selector]",
		Short: "Mark timeline entries as watched",
		Long: "Mark unwatched entries as watched using the indices printed by `owl timeline`.\n" +
			"Selectors: 3, 1,3,5, 2-4, all, none. Without a selector you are prompted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			selector := strings.Join(args, ",")
			if strings.TrimSpace(selector) == "" {
				entries, err := env.Session.Timeline(cmd.Context(), app.TimelineQuery{Limit: -1})
				if err != nil {
					return err
				}
				printTimeline(out, entries, env.Session.Settings().DateFormat)
				if len(entries) == 0 {
					return nil
				}
				selector, err = promptLine(cmd.InOrStdin(), out, "Mark as watched (e.g. 1,3-5, all, none): ")
				if errors.Is(err, errAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}

			res, err := env.Session.MarkWatched(cmd.Context(), selector)
			var selErr *app.SelectorError
			if err != nil && !errors.As(err, &selErr) {
				return err
			}
			for _, issue := range res.Ignored {
				fmt.Fprintf(out, "%s ignored %q: %s\n", warnColor.Sprint("!"), issue.Token, issue.Reason)
			}
			fmt.Fprintf(out, "%s %d entr%s marked as watched\n", okColor.Sprint("✓"), res.Updated, plural(res.Updated, "y", "ies"))
			if res.Updated > 0 {
				exportTimeline(cmd, env)
			}
			if selErr != nil && res.Updated == 0 {
				return selErr
			}
			return nil
		},
	}
}

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export [path]",
		Short: "Write the unwatched timeline to a text file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			path := env.Exporter.Path()
			if len(args) == 1 {
				path = args[0]
			}
			n, err := env.Exporter.ExportTo(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d line(s) written to %s\n", okColor.Sprint("✓"), n, path)
			return nil
		},
	}
}

// exportTimeline refreshes the export file after a change. Failures only warn.
func exportTimeline(cmd *cobra.Command, env *bootstrap.Env) {
	if env.Exporter.Path() == "" {
		return
	}
	if _, err := env.Exporter.Export(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s export failed: %v\n", warnColor.Sprint("!"), err)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
