package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sealchat/internal/backup"
	"sealchat/internal/crypto"
)

// restore <word>...: rebuild the identity key from a recovery mnemonic,
// wrap it under the password and publish the new record to the server.
func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <mnemonic>",
		Short: "Recreate the identity key from a mnemonic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			kp, err := backup.Restore(strings.Join(args, " "))
			if err != nil {
				return err
			}
			rec, err := appCtx.Keys.Store(kp, password)
			if err != nil {
				return err
			}
			if err := appCtx.Relay.PublishIdentity(cmd.Context(), rec); err != nil {
				return err
			}
			appCtx.Session.SetKeyPair(kp)
			fmt.Printf("Identity restored.\nFingerprint: %s\n", crypto.Fingerprint(kp.Public))
			return nil
		},
	}
}
