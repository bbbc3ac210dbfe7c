package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge --out DST SRC...",
		Short: "Merge index stores into one, keeping the first record of each package version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			return c.app.Merge(cmd.Context(), out, args, options(cmd))
		},
	}
	cmd.Flags().StringP("out", "o", "", "Storage key of the merged index store")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
