package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerDeviceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register-device <device-id>",
		Short: "Publish this device's key to the directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Identity.RegisterDevice(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Device registered.")
			return nil
		},
	}
}
