package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealchat/internal/crypto"
	"sealchat/internal/domain"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, ok, err := appCtx.Keys.Load()
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNoIdentity
			}
			fmt.Println(crypto.Fingerprint(rec.PublicKey))
			return nil
		},
	}
}
