package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Guilhem-Bonnet/episode-owl/internal/buildinfo"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the owl version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.Current().String())
			return nil
		},
	}
}
