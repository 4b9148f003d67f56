package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/maximeliseyev/construct-messenger/internal/app"
	"github.com/maximeliseyev/construct-messenger/internal/domain"
	"github.com/maximeliseyev/construct-messenger/internal/logging"
)

var (
	home       string
	passphrase string
	relayURL   string
	username   string
	suiteID    uint16
	verbose    bool

	appCtx *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:   "construct",
		Short: "End-to-end encrypted messaging CLI",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Init(verbose); err != nil {
				return err
			}
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".construct")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			var err error
			appCtx, err = app.New(app.Config{
				Home:     home,
				RelayURL: relayURL,
				Username: username,
				Suite:    suiteID,
			})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.construct)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVarP(&username, "username", "u", "", "your stable username")
	root.PersistentFlags().Uint16Var(&suiteID, "suite", uint16(domain.SuiteClassic), "crypto suite id (1 classic, 2 hybrid)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		bundleCmd(),
		registerCmd(),
		startSessionCmd(),
		sendCmd(),
		recvCmd(),
		watchCmd(),
		rotateCmd(),
		destroyCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}

func requireUsername() error {
	if username == "" {
		return fmt.Errorf("--username required")
	}
	return nil
}

func requireRelay() error {
	if appCtx.Relay == nil {
		return fmt.Errorf("no relay configured, use --relay")
	}
	return nil
}
