package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"sealchat/internal/domain"
)

// send <chat-id> <message>: deliver a message over the realtime channel,
// encrypting it for every recipient device when the chat is end-to-end
// encrypted.
func sendCmd() *cobra.Command {
	var (
		recipients []int64
		encrypted  bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <chat-id> <message>",
		Short: "Send a message to a chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("chat id: %w", err)
			}
			if encrypted {
				if password == "" {
					return fmt.Errorf("password required for encrypted chats (-p)")
				}
				if err := appCtx.Identity.Unlock(cmd.Context(), password); err != nil {
					return err
				}
			}

			appCtx.Sync.TrackChat(domain.Chat{ID: chatID, Encrypted: encrypted}, recipients...)

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			go func() { _ = appCtx.Realtime.Run(ctx) }()

			// Wait for the socket before authoring, so exactly one
			// message is minted.
			for !appCtx.Realtime.Connected() {
				select {
				case <-ctx.Done():
					return domain.ErrOffline
				case <-time.After(100 * time.Millisecond):
				}
			}

			if _, err := appCtx.Sync.SendMessage(ctx, chatID, recipients, args[1]); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
	cmd.Flags().Int64SliceVar(&recipients, "to", nil, "recipient user ids")
	cmd.Flags().BoolVar(&encrypted, "encrypted", false, "treat the chat as end-to-end encrypted")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "send deadline")
	return cmd
}
