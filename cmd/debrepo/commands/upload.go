package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Store a package in the repository and index it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Upload(cmd.Context(), args[0], options(cmd))
		},
	}
	cmd.Flags().String("component", "", "Component to publish into (default: first configured)")
	return cmd
}
