package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// register: publish the registration bundle to the relay.
func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish the registration bundle to the relay",
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
			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			bundle, err := c.ExportBundle()
			if err != nil {
				return err
			}
			if err := appCtx.Relay.Register(username, bundle); err != nil {
				return err
			}
			fmt.Printf("registered %s (%d bundle bytes)\n", username, len(bundle))
			return nil
		},
	}
}
