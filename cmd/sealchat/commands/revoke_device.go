package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func revokeDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-device <device-id>",
		Short: "Revoke a device key in the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Identity.RevokeDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Device revoked.")
			return nil
		},
	}
}
