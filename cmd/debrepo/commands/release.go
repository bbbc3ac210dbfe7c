package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Regenerate and sign the Release manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Release(cmd.Context(), options(cmd))
		},
	}
}
