package cli

import (
	"errors"

	"todo_client/internal/domain"

	"github.com/spf13/cobra"
)

func newProfileCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile commands",
	}
	cmd.AddCommand(newProfileShowCmd(rt))
	cmd.AddCommand(newProfileUpdateCmd(rt))
	cmd.AddCommand(newProfilePasswordCmd(rt))
	return cmd
}

func newProfileShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Fetch the current profile from the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.requireSession(); err != nil {
				return writeErr(cmd, err)
			}
			if err := resultError(rt.app.Session.RefreshProfile(cmd.Context())); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": rt.app.Session.State().User})
		},
	}
}

func newProfileUpdateCmd(rt *runtime) *cobra.Command {
	var name, bio string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change name and/or bio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := rt.requireSession(); err != nil {
				return writeErr(cmd, err)
			}
			var patch domain.ProfilePatch
			if cmd.Flags().Changed("name") {
				patch.Name = &name
			}
			if cmd.Flags().Changed("bio") {
				patch.Bio = &bio
			}
			if err := resultError(rt.app.Session.UpdateProfile(cmd.Context(), patch)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": rt.app.Session.State().User})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&bio, "bio", "", "Short bio")
	return cmd
}

func newProfilePasswordCmd(rt *runtime) *cobra.Command {
	var current, next, confirm string

	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change the account password",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := rt.app.Session.ChangePassword(cmd.Context(), current, next, confirm)
			if err := resultError(res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": map[string]any{"password_changed": true}})
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVar(&next, "new", "", "New password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Repeat the new password")
	return cmd
}

func newAccountCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account commands",
	}
	cmd.AddCommand(newAccountDeleteCmd(rt))
	return cmd
}

func newAccountDeleteCmd(rt *runtime) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Permanently delete the account and all its todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, errors.New("refusing to delete the account without --yes"))
			}
			if err := resultError(rt.app.Session.DeleteAccount(cmd.Context())); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": map[string]any{"deleted": true}})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
