package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maximeliseyev/construct-messenger/internal/core"
	"github.com/maximeliseyev/construct-messenger/internal/relay"
)

// recv: drain and decrypt queued messages.
func recvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recv",
		Short: "Fetch and decrypt your queued messages",
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
			packets, err := appCtx.Relay.Inbox(username)
			if err != nil {
				return err
			}
			for _, p := range packets {
				pt, err := handlePacket(c, p)
				if err != nil {
					fmt.Printf("[%s] <undecryptable: %v>\n", p.From, err)
					continue
				}
				fmt.Printf("[%s] %s\n", p.From, pt)
			}
			return nil
		},
	}
}

// handlePacket opens one inbound packet, restoring or establishing the
// session as needed and persisting the advanced state afterwards.
//
// When both sides raced to initiate, the lexicographic tie-break applies:
// the losing side discards its nascent sending session and replays the
// packet through the responder path.
func handlePacket(c *core.Core, p relay.Packet) ([]byte, error) {
	h, ok := c.SessionHandle(p.From)
	if !ok {
		var err error
		if h, ok, err = appCtx.RestoreSession(c, passphrase, p.From); err != nil {
			return nil, err
		}
	}
	if ok {
		pt, err := c.Decrypt(h, p.Envelope)
		if err == nil {
			return pt, appCtx.PersistSession(c, passphrase, p.From, h)
		}
		if len(p.Bundle) == 0 || core.InitiatorRole(username, p.From) {
			return nil, err
		}
		// Lost the race: take the responder role instead.
		if derr := c.DestroySession(h); derr != nil {
			return nil, derr
		}
	}
	if len(p.Bundle) == 0 {
		return nil, fmt.Errorf("no session with %s and no bundle attached", p.From)
	}
	h, pt, err := c.InitReceivingSession(p.From, p.Bundle, p.Envelope)
	if err != nil {
		return nil, err
	}
	return pt, appCtx.PersistSession(c, passphrase, p.From, h)
}
