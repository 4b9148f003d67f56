package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"
)

// rotate: replace the signed prekey and republish the bundle.
func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the signed prekey",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			update, err := c.RotateSignedPrekey()
			if err != nil {
				return err
			}
			if err := appCtx.PersistIdentity(passphrase, c); err != nil {
				return err
			}
			if appCtx.Relay != nil && username != "" {
				bundle, err := c.ExportBundle()
				if err != nil {
					return err
				}
				if err := appCtx.Relay.Register(username, bundle); err != nil {
					return err
				}
			}
			fmt.Printf("rotated signed prekey\nnew prekey: %s\n",
				base64.StdEncoding.EncodeToString(update.SignedPrekey))
			return nil
		},
	}
}
