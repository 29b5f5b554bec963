package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search TVMaze for a show",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			ranked, err := env.Session.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			printCandidates(cmd.OutOrStdout(), ranked)
			return nil
		},
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var pick int
	cmd := &cobra.Command{
		Use:   "add <query>",
		Short: "Start tracking a show",
		Long: "Search for the show, pick one of the candidates and start tracking it.\n" +
			"The latest aired episode becomes the baseline: nothing is reported as new on the first check.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			ranked, err := env.Session.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			choice := pick
			if choice == 0 {
				if len(ranked) == 1 {
					choice = 1
				} else {
					printCandidates(out, ranked)
					choice, err = promptChoice(cmd.InOrStdin(), out, len(ranked))
					if errors.Is(err, errAborted) {
						fmt.Fprintln(out, "Nothing added.")
						return nil
					}
					if err != nil {
						return err
					}
				}
			}
			if choice < 1 || choice > len(ranked) {
				return fmt.Errorf("--pick %d out of range (1-%d)", choice, len(ranked))
			}

			res, err := env.Session.AddShow(cmd.Context(), ranked[choice-1].Candidate)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s Now tracking %s (%s numbering)\n", okColor.Sprint("✓"), titleColor.Sprint(res.Show.Name), res.Show.Numbering)
			if res.Baseline != nil {
				fmt.Fprintf(out, "  Baseline: %s %s\n", res.Baseline.Position().Code(), dash(res.Baseline.Title))
			} else {
				fmt.Fprintln(out, dimColor.Sprint("  No episode has aired yet."))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&pick, "pick", "p", 0, "Candidate to add (1-based) instead of prompting")
	return cmd
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id|name>",
		Aliases: []string{"rm"},
		Short:   "Stop tracking a show",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			removed, err := env.Session.RemoveShow(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Stopped tracking %s\n", okColor.Sprint("✓"), removed.Name)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tracked shows",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			shows, err := env.Session.ListShows(cmd.Context())
			if err != nil {
				return err
			}
			printShows(cmd.OutOrStdout(), shows, env.Session.Settings().DateFormat)
			return nil
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every tracked show for new episodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.ensureEnv(cmd.Context())
			if err != nil {
				return err
			}
			report, err := env.Session.CheckAll(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(report.Results) == 0 {
				fmt.Fprintln(out, dimColor.Sprint("No tracked shows."))
				return nil
			}
			printCheckReport(out, report)
			exportTimeline(cmd, env)
			if failed := report.Failures(); len(failed) == len(report.Results) {
				return app.Coded("every show failed", failed[0].Err)
			}
			return nil
		},
	}
}
