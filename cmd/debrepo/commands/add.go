package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add KEY...",
		Short: "Index packages already present in the repository storage",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				// Display command usage help without returning an error
				_ = cmd.Help()
				return nil
			}
			return c.app.Add(cmd.Context(), args, options(cmd))
		},
	}
	cmd.Flags().String("component", "", "Component to index into (default: derived from the key)")
	return cmd
}
