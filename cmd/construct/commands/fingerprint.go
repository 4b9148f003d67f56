package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			fmt.Println(c.Fingerprint())
			return nil
		},
	}
}
