package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealchat/internal/backup"
)

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Print the recovery mnemonic for the identity key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("password required (-p)")
			}
			kp, err := appCtx.Keys.Unlock(password)
			if err != nil {
				return err
			}
			phrase, err := backup.Mnemonic(kp)
			if err != nil {
				return err
			}
			fmt.Println(phrase)
			return nil
		},
	}
}
