package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealchat/internal/crypto"
)

func unlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Verify the password and print the identity state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			if err := appCtx.Identity.Unlock(cmd.Context(), password); err != nil {
				return err
			}
			kp, _ := appCtx.Session.KeyPair()
			fmt.Printf("Unlocked.\nFingerprint: %s\n", crypto.Fingerprint(kp.Public))
			return nil
		},
	}
}
