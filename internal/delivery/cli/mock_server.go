package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"todo_client/internal/fakeapi"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func newMockServerCmd(rt *runtime) *cobra.Command {
	var (
		addr      string
		seeds     []string
		autoLogin bool
		bare      bool
	)

	cmd := &cobra.Command{
		Use:         "mock-server",
		Short:       "Serve an in-memory to-do API for local testing",
		Annotations: map[string]string{skipClient: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			srv := fakeapi.New(rt.log, fakeapi.WithAutoLogin(autoLogin), fakeapi.WithBareResponses(bare))

			for _, seed := range seeds {
				parts := strings.SplitN(seed, ":", 3)
				if len(parts) != 3 {
					return writeErr(cmd, fmt.Errorf("invalid --seed-user %q, expected username:email:password", seed))
				}
				user, err := srv.SeedUser(parts[0], parts[1], parts[2])
				if err != nil {
					return writeErr(cmd, fmt.Errorf("seed user %s: %w", parts[0], err))
				}
				rt.log.Infof("Mock server: seeded user %s (ID: %d)", user.Username, user.ID)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)
			go func() {
				select {
				case <-quit:
					rt.log.Warn("Mock server: shutdown signal received")
					cancel()
				case <-ctx.Done():
				}
			}()

			fmt.Fprintf(cmd.ErrOrStderr(), "mock API listening on %s\n", addr)
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", envOr("TODO_MOCK_ADDR", ":8080"), "Listen address")
	cmd.Flags().StringArrayVar(&seeds, "seed-user", nil, "Pre-create a user as username:email:password (repeatable)")
	cmd.Flags().BoolVar(&autoLogin, "auto-login", false, "Return a token from /register")
	cmd.Flags().BoolVar(&bare, "bare", false, "Minimal responses: token-only login, message-only updates")
	return cmd
}
