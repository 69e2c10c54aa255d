package cli

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Auth.Health(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": map[string]any{"status": "ok", "api": rt.cfg.APIURL}})
		},
	}
}
