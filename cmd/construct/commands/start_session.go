package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// start-session <peer>: fetch the peer bundle and initiate a session.
func startSessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start-session <peer>",
		Short: "Initiate an encrypted session with a peer",
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
			bundle, err := appCtx.PeerBundle(peer)
			if err != nil {
				return err
			}
			h, err := c.InitSendingSession(peer, bundle)
			if err != nil {
				return err
			}
			if err := appCtx.PersistSession(c, passphrase, peer, h); err != nil {
				return err
			}
			fmt.Printf("session with %s ready\n", peer)
			return nil
		},
	}
}
