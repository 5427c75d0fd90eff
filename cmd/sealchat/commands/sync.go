package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealchat/internal/domain"
	"sealchat/internal/realtime"
	"sealchat/internal/services/msgsync"
)

// sync: connect to the realtime channel and stream events to stdout until
// interrupted. Encrypted messages are decrypted with the unlocked identity
// key; without -p they print as sealed.
func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Connect and stream chat events to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password != "" {
				if err := appCtx.Identity.Unlock(cmd.Context(), password); err != nil {
					return err
				}
			}
			// A fresh realtime client with a printing sink in front of
			// the sync store; the store still sees every event.
			rt := realtime.New(cfg.RealtimeURL, cfg.Token,
				&printerSink{store: appCtx.Sync}, cfg.ReconnectAttempts, logger)
			appCtx.Sync.SetOutbound(rt)
			return rt.Run(cmd.Context())
		},
	}
}

// printerSink forwards events to the sync store and echoes them for the
// terminal.
type printerSink struct {
	store *msgsync.Store
}

func (p *printerSink) Apply(ev domain.Event) {
	p.store.Apply(ev)

	switch e := ev.(type) {
	case domain.NewMessageEvent:
		text, ok, err := p.store.Plaintext(e.Message)
		switch {
		case err != nil:
			text = "[unable to decrypt]"
		case !ok:
			text = "[sealed]"
		}
		fmt.Printf("[chat %d] %s: %s\n", e.Message.ChatID, e.Message.SenderName, text)
	case domain.MessageDeletedEvent:
		fmt.Printf("[chat %d] message %d deleted by %s\n", e.ChatID, e.MessageID, e.DeletedByName)
	case domain.TypingEvent:
		fmt.Printf("[chat %d] %s is typing\n", e.ChatID, e.Username)
	case domain.ConnectionEvent:
		if e.Online {
			fmt.Println("connected")
		} else {
			fmt.Println("offline")
		}
	}
}
