package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maximeliseyev/construct-messenger/internal/logging"
	"github.com/maximeliseyev/construct-messenger/internal/relay"
)

// watch: stay connected and print messages as they arrive.
func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream incoming messages until interrupted",
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

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err = appCtx.Relay.Subscribe(ctx, username, func(p relay.Packet) {
				pt, err := handlePacket(c, p)
				if err != nil {
					logging.Error("dropping packet", zap.String("from", p.From), zap.Error(err))
					return
				}
				fmt.Printf("[%s] %s\n", p.From, pt)
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
