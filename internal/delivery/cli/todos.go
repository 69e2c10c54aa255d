package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"todo_client/internal/domain"

	"github.com/spf13/cobra"
)

func newTodosCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "todos",
		Aliases: []string{"todo"},
		Short:   "Todo commands",
	}
	cmd.AddCommand(newTodosListCmd(rt))
	cmd.AddCommand(newTodosAddCmd(rt))
	cmd.AddCommand(newTodosEditCmd(rt))
	cmd.AddCommand(newTodosToggleCmd(rt))
	cmd.AddCommand(newTodosDoneCmd(rt, "done", true))
	cmd.AddCommand(newTodosDoneCmd(rt, "undone", false))
	cmd.AddCommand(newTodosRemoveCmd(rt))
	cmd.AddCommand(newTodosStatsCmd(rt))
	return cmd
}

// loadedCollection returns an error when the session is missing or the
// initial fetch failed.
func loadedCollection(rt *runtime) error {
	if _, err := rt.requireSession(); err != nil {
		return err
	}
	if msg := rt.app.Collection.State().Error; msg != "" {
		return errors.New(msg)
	}
	return nil
}

func newTodosListCmd(rt *runtime) *cobra.Command {
	var status, priority, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			q := domain.TodoQuery{
				Status:   domain.StatusFilter(strings.ToLower(status)),
				Priority: domain.Priority(strings.ToLower(priority)),
				Search:   search,
			}
			switch q.Status {
			case "", domain.FilterAll, domain.FilterCompleted, domain.FilterPending:
			default:
				return writeErr(cmd, fmt.Errorf("invalid --status %q (all|completed|pending)", status))
			}
			if q.Priority != "" && !domain.IsValidPriority(q.Priority) {
				return writeErr(cmd, fmt.Errorf("invalid --priority %q (low|medium|high)", priority))
			}
			return writeOut(cmd, rt, map[string]any{"data": rt.app.Collection.Items(q)})
		},
	}

	cmd.Flags().StringVar(&status, "status", "all", "Filter by status (all|completed|pending)")
	cmd.Flags().StringVar(&priority, "priority", "", "Filter by priority (low|medium|high)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text search")
	return cmd
}

func newTodosAddCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task...>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			res := rt.app.Collection.Create(cmd.Context(), strings.Join(args, " "))
			if err := resultError(res); err != nil {
				return writeErr(cmd, err)
			}
			items := rt.app.Collection.State().Items
			return writeOut(cmd, rt, map[string]any{"data": items[0]})
		},
	}
}

func newTodosEditCmd(rt *runtime) *cobra.Command {
	var (
		task, description, priority, due string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}

			var patch domain.TodoPatch
			flags := cmd.Flags()
			if flags.Changed("task") {
				patch.Task = &task
			}
			if flags.Changed("description") {
				patch.Description = &description
			}
			if flags.Changed("priority") {
				p := domain.Priority(strings.ToLower(priority))
				patch.Priority = &p
			}
			if flags.Changed("due") {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return writeErr(cmd, fmt.Errorf("invalid --due %q, expected YYYY-MM-DD", due))
				}
				patch.DueDate = &d
			}

			if err := resultError(rt.app.Collection.Update(cmd.Context(), id, patch)); err != nil {
				return writeErr(cmd, err)
			}
			return writeItem(cmd, rt, id)
		},
	}

	cmd.Flags().StringVar(&task, "task", "", "Task text")
	cmd.Flags().StringVar(&description, "description", "", "Longer description")
	cmd.Flags().StringVar(&priority, "priority", "", "Priority (low|medium|high)")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	return cmd
}

func newTodosToggleCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip a todo between done and pending",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			if err := resultError(rt.app.Collection.Toggle(cmd.Context(), id)); err != nil {
				return writeErr(cmd, err)
			}
			return writeItem(cmd, rt, id)
		},
	}
}

func newTodosDoneCmd(rt *runtime, use string, done bool) *cobra.Command {
	short := "Mark a todo as done"
	if !done {
		short = "Mark a todo as pending"
	}
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			if err := resultError(rt.app.Collection.SetStatus(cmd.Context(), id, done)); err != nil {
				return writeErr(cmd, err)
			}
			return writeItem(cmd, rt, id)
		},
	}
}

func newTodosRemoveCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			if err := resultError(rt.app.Collection.Delete(cmd.Context(), id)); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}
}

func newTodosStatsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadedCollection(rt); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, rt, map[string]any{"data": rt.app.Collection.Stats()})
		},
	}
}

func writeItem(cmd *cobra.Command, rt *runtime, id int64) error {
	for _, t := range rt.app.Collection.State().Items {
		if t.ID == id {
			return writeOut(cmd, rt, map[string]any{"data": t})
		}
	}
	return writeOut(cmd, rt, map[string]any{"data": nil})
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return id, nil
}
