package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"todo_client/config"
	"todo_client/internal/app"
	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// skipClient marks commands that run without an API session.
const skipClient = "skip-client"

type runtime struct {
	APIURL     string
	PrettyJSON bool
	LogOutput  io.Writer

	cfg *config.Config
	log *logrus.Logger
	app *app.App
}

// Execute runs the todo command line against os.Args.
func Execute() error {
	rt := &runtime{}
	return run(rt, newRootCmd(rt))
}

// run executes cmd and closes whatever the command opened. Cobra skips
// PersistentPostRunE when RunE fails, so the close happens here too.
// Errors cobra raised itself (bad args, unknown flags) are printed here;
// command errors were already written by writeErr.
func run(rt *runtime, cmd *cobra.Command) error {
	err := cmd.Execute()
	if cerr := rt.close(); cerr != nil && err == nil {
		err = writeErr(cmd, cerr)
	}
	var done reportedError
	if err != nil && !errors.As(err, &done) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err.Error())
	}
	return err
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "todo",
		Short:         "Command-line client for the to-do service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Sign in and look at your list
  todo login --username alice --password secret1
  todo todos list --status pending

  # Work through items
  todo todos add "Buy milk"
  todo todos toggle 42
  todo todos stats

  # Local API for trying things out
  todo mock-server --addr :8080 --seed-user demo:demo@example.com:secret1
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := rt.loadConfig(); err != nil {
			return writeErr(cmd, err)
		}
		if cmd.Annotations[skipClient] == "true" {
			return nil
		}
		if err := rt.connect(cmd.Context()); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return rt.close()
	}

	cmd.PersistentFlags().StringVar(&rt.APIURL, "api", "", "API base URL (overrides TODO_API_URL)")
	cmd.PersistentFlags().BoolVar(&rt.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newLoginCmd(rt))
	cmd.AddCommand(newRegisterCmd(rt))
	cmd.AddCommand(newLogoutCmd(rt))
	cmd.AddCommand(newWhoamiCmd(rt))
	cmd.AddCommand(newProfileCmd(rt))
	cmd.AddCommand(newAccountCmd(rt))
	cmd.AddCommand(newTodosCmd(rt))
	cmd.AddCommand(newHealthCmd(rt))
	cmd.AddCommand(newMockServerCmd(rt))

	return cmd
}

func (rt *runtime) loadConfig() error {
	bootstrap := app.NewLogger("warn", "text", rt.LogOutput)
	cfg, err := config.LoadConfig(bootstrap)
	if err != nil {
		return err
	}
	if rt.APIURL != "" {
		cfg.APIURL = strings.TrimRight(rt.APIURL, "/")
	}
	rt.cfg = cfg
	rt.log = app.NewLogger(cfg.LogLevel, cfg.LogFormat, rt.LogOutput)
	return nil
}

// connect builds the client and restores any stored session.
func (rt *runtime) connect(ctx context.Context) error {
	a, err := app.New(rt.cfg, rt.log)
	if err != nil {
		return err
	}
	rt.app = a
	if ctx == nil {
		ctx = context.Background()
	}
	rt.app.Session.Initialize(ctx)
	return nil
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.Close()
	rt.app = nil
	return err
}

func (rt *runtime) requireSession() (*domain.User, error) {
	st := rt.app.Session.State()
	if !st.IsAuthenticated {
		return nil, errors.New("not logged in; run `todo login` first")
	}
	return st.User, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, rt *runtime, v any) error {
	var (
		b   []byte
		err error
	)
	if rt.PrettyJSON {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

// reportedError marks an error already written to stderr.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return reportedError{err}
}

// resultError turns a failed controller result into a command error that
// lists field messages in a stable order.
func resultError(res domain.Result) error {
	if res.Success {
		return nil
	}
	if len(res.FieldErrors) == 0 {
		return errors.New(res.Error)
	}
	fields := make([]string, 0, len(res.FieldErrors))
	for f := range res.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+res.FieldErrors[f])
	}
	return errors.New(strings.Join(parts, "; "))
}
