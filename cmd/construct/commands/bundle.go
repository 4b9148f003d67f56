package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// bundle: print the registration bundle in its readable framing.
func bundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "Print the registration bundle as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			c, err := appCtx.OpenCore(passphrase)
			if err != nil {
				return err
			}
			text, err := c.ExportBundleText()
			if err != nil {
				return err
			}
			fmt.Println(string(text))
			return nil
		},
	}
}
