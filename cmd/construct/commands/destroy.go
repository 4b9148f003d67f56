package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// destroy <peer>: drop the session and its stored state.
func destroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <peer>",
		Short: "Destroy the session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			peer := args[0]

			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			if h, ok, err := appCtx.RestoreSession(c, passphrase, peer); err != nil {
				return err
			} else if ok {
				if err := c.DestroySession(h); err != nil {
					return err
				}
			}
			if err := appCtx.Store.DeleteSession(peer); err != nil {
				return err
			}
			fmt.Printf("session with %s destroyed\n", peer)
			return nil
		},
	}
}
