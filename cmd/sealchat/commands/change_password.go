package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func changePasswordCmd() *cobra.Command {
	var newPassword string

	cmd := &cobra.Command{
		Use:   "change-password",
		Short: "Re-wrap the identity key under a new password",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				return fmt.Errorf("current password required (-p)")
			}
			if newPassword == "" {
				return fmt.Errorf("new password required (--new)")
			}
			if err := appCtx.Identity.ChangePassword(cmd.Context(), password, newPassword); err != nil {
				return err
			}
			fmt.Println("Password changed.")
			return nil
		},
	}
	cmd.Flags().StringVar(&newPassword, "new", "", "new password")
	_ = cmd.MarkFlagRequired("new")
	return cmd
}
