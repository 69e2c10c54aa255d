package cli

import (
	"errors"

	"todo_client/internal/domain"

	"github.com/spf13/cobra"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var creds domain.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := rt.app.Session.Login(cmd.Context(), creds)
			if err := resultError(res); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": rt.app.Session.State().User})
		},
	}

	cmd.Flags().StringVar(&creds.Username, "username", "", "Username")
	cmd.Flags().StringVar(&creds.Email, "email", "", "Email (alternative to --username)")
	cmd.Flags().StringVar(&creds.Password, "password", envOr("TODO_PASSWORD", ""), "Password (or TODO_PASSWORD)")
	return cmd
}

func newRegisterCmd(rt *runtime) *cobra.Command {
	var req domain.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			res := rt.app.Session.Register(cmd.Context(), req)
			if err := resultError(res); err != nil {
				return writeErr(cmd, err)
			}
			st := rt.app.Session.State()
			return writeOut(cmd, rt, map[string]any{
				"data": map[string]any{
					"username":       req.Username,
					"authenticated":  st.IsAuthenticated,
					"login_required": !st.IsAuthenticated,
				},
			})
		},
	}

	cmd.Flags().StringVar(&req.Username, "username", "", "Username")
	cmd.Flags().StringVar(&req.Email, "email", "", "Email")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&req.Password, "password", envOr("TODO_PASSWORD", ""), "Password (or TODO_PASSWORD)")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "Repeat the password")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.app.Session.Logout(cmd.Context())
			return writeOut(cmd, rt, map[string]any{"data": map[string]any{"authenticated": false}})
		},
	}
}

func newWhoamiCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := rt.app.Session.State()
			if !st.IsAuthenticated {
				return writeErr(cmd, errors.New("not logged in"))
			}
			return writeOut(cmd, rt, map[string]any{"data": st.User})
		},
	}
}
