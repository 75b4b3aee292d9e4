package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCmd(o *rootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard every position and restore the starting balance",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(cmd *cobra.Command, args []string, a *app) error {
			if !force {
				return errors.New("reset discards all positions and trade history; rerun with --force")
			}
			l, err := a.engine.Reset(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account reset. Balance: %s\n", money(l.Balance))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "confirm the reset")
	return cmd
}
