package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/maximeliseyev/construct-messenger/internal/relay"
)

// send <peer> <message>: encrypt and send one message, starting a session if
// none exists yet.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer> <message>",
		Short: "Encrypt and send a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := requireUsername(); err != nil {
				return err
			}
			if err := requireRelay(); err != nil {
				return err
			}
			peer, msg := args[0], []byte(args[1])

			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			h, ok, err := appCtx.RestoreSession(c, passphrase, peer)
			if err != nil {
				return err
			}
			if !ok {
				bundle, err := appCtx.PeerBundle(peer)
				if err != nil {
					return err
				}
				if h, err = c.InitSendingSession(peer, bundle); err != nil {
					return err
				}
			}

			envelope, err := c.Encrypt(h, msg)
			if err != nil {
				return err
			}
			ownBundle, err := c.ExportBundle()
			if err != nil {
				return err
			}
			if err := appCtx.Relay.Send(relay.Packet{
				From:      username,
				To:        peer,
				Bundle:    ownBundle,
				Envelope:  envelope,
				Timestamp: time.Now().Unix(),
			}); err != nil {
				return err
			}
			if err := appCtx.PersistSession(c, passphrase, peer, h); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
