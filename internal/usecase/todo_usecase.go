package usecase

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"

	"todo_client/internal/clients"
	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.TodoUseCase = (*todoUseCase)(nil)

var errStale = errors.New("response arrived after the list changed owner")

// todoUseCase keeps the signed-in user's collection. Local items are only
// ever replaced by what the server returned; nothing is inserted, merged or
// removed speculatively.
type todoUseCase struct {
	todos clients.TodoClient
	log   *logrus.Logger

	mu      sync.Mutex
	items   *todoSet
	loading bool
	err     string
	active  bool
	// epoch advances on every reset; responses captured under an older
	// epoch are dropped.
	epoch uint64
	// applied holds, per item id, the sequence of the newest request whose
	// response was applied. Older responses arriving later are dropped.
	applied map[int64]uint64
	nextSeq uint64
}

func NewTodoUseCase(todos clients.TodoClient, logger *logrus.Logger) domain.TodoUseCase {
	return &todoUseCase{
		todos:   todos,
		log:     logger,
		items:   newTodoSet(),
		applied: make(map[int64]uint64),
	}
}

// OnSessionChange is subscribed to the session: a new user triggers a full
// reload, losing the user clears everything immediately.
func (uc *todoUseCase) OnSessionChange(prev, next domain.SessionState) {
	switch {
	case next.IsAuthenticated && (!prev.IsAuthenticated || prev.Epoch != next.Epoch):
		uc.reset(true)
		uc.log.Infof("Use Case: Session started for user %d, loading todos", next.User.ID)
		uc.Fetch(context.Background())
	case prev.IsAuthenticated && !next.IsAuthenticated:
		uc.reset(false)
		uc.log.Info("Use Case: Session ended, todo list cleared")
	}
}

func (uc *todoUseCase) reset(active bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.items = newTodoSet()
	uc.loading = false
	uc.err = ""
	uc.active = active
	uc.epoch++
	uc.applied = make(map[int64]uint64)
}

func (uc *todoUseCase) Fetch(ctx context.Context) domain.Result {
	uc.mu.Lock()
	if !uc.active {
		uc.mu.Unlock()
		return domain.ResultFromError(errNotAuthenticated)
	}
	epoch := uc.epoch
	uc.loading = true
	uc.err = ""
	uc.mu.Unlock()

	todos, err := uc.todos.List(ctx)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.epoch != epoch {
		uc.log.Debug("Use Case: Dropping todo list for a reset collection")
		return uc.outcome(err, errStale)
	}
	uc.loading = false
	if err != nil {
		uc.log.Warnf("Use Case: Failed to fetch todos: %v", err)
		uc.err = bannerFor(err)
		return domain.ResultFromError(err)
	}
	uc.items = newTodoSet()
	for _, t := range todos {
		uc.items.append(t)
	}
	uc.log.Infof("Use Case: Loaded %d todos", uc.items.len())
	return domain.OK()
}

// Create never inserts a placeholder: the item appears only once the server
// has assigned its id.
func (uc *todoUseCase) Create(ctx context.Context, task string) domain.Result {
	task = strings.TrimSpace(task)
	if err := ValidateTask(task); err != nil {
		return domain.ResultFromError(err)
	}
	epoch, ok := uc.begin()
	if !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}

	todo, err := uc.todos.Create(ctx, task)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.epoch != epoch {
		return uc.outcome(err, errStale)
	}
	if err != nil {
		uc.log.Warnf("Use Case: Failed to create todo: %v", err)
		uc.err = bannerFor(err)
		return domain.ResultFromError(err)
	}
	uc.items.prepend(*todo)
	uc.log.Infof("Use Case: Todo %d created", todo.ID)
	return domain.OK()
}

func (uc *todoUseCase) Update(ctx context.Context, id int64, patch domain.TodoPatch) domain.Result {
	if patch.Task != nil {
		task := strings.TrimSpace(*patch.Task)
		patch.Task = &task
	}
	if err := ValidateTodoPatch(patch); err != nil {
		return domain.ResultFromError(err)
	}
	return uc.mutate(ctx, id, "update", func() (*domain.Todo, error) {
		return uc.todos.Update(ctx, id, patch)
	})
}

func (uc *todoUseCase) Toggle(ctx context.Context, id int64) domain.Result {
	return uc.mutate(ctx, id, "toggle", func() (*domain.Todo, error) {
		return uc.todos.Toggle(ctx, id)
	})
}

func (uc *todoUseCase) SetStatus(ctx context.Context, id int64, done bool) domain.Result {
	return uc.Update(ctx, id, domain.TodoPatch{Status: &done})
}

// Delete removes the local item only after the server confirmed; on failure
// the item stays visible so the user can retry. A confirmed delete always
// wins over update responses still in flight for the same id.
func (uc *todoUseCase) Delete(ctx context.Context, id int64) domain.Result {
	epoch, ok := uc.begin()
	if !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}

	err := uc.todos.Remove(ctx, id)

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.epoch != epoch {
		return uc.outcome(err, errStale)
	}
	if err != nil {
		uc.log.Warnf("Use Case: Failed to delete todo %d: %v", id, err)
		uc.err = bannerFor(err)
		return domain.ResultFromError(err)
	}
	uc.items.remove(id)
	uc.applied[id] = uc.nextSeq
	uc.log.Infof("Use Case: Todo %d deleted", id)
	return domain.OK()
}

func (uc *todoUseCase) Items(q domain.TodoQuery) []domain.Todo {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]domain.Todo, 0, uc.items.len())
	for _, t := range uc.items.list() {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Stats is derived from the collection on every call and never stored.
func (uc *todoUseCase) Stats() domain.TodoStats {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return computeStats(uc.items.list())
}

func (uc *todoUseCase) State() domain.CollectionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return domain.CollectionState{
		Items:   uc.items.list(),
		Loading: uc.loading,
		Error:   uc.err,
	}
}

func (uc *todoUseCase) ClearError() {
	uc.mu.Lock()
	uc.err = ""
	uc.mu.Unlock()
}

// --- Helper Functions ---

// mutate runs an update-style call and swaps in the server's representation
// of the item, unless the item is gone or a newer request for it has already
// been applied. A failed request leaves earlier results alone. A bare
// acknowledgement is followed by a read of the item.
func (uc *todoUseCase) mutate(ctx context.Context, id int64, op string, call func() (*domain.Todo, error)) domain.Result {
	epoch, ok := uc.begin()
	if !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}
	seq := uc.issue()

	todo, err := call()
	if err == nil && (todo == nil || (todo.ID == 0 && todo.Task == "")) {
		uc.log.Debugf("Use Case: %s of todo %d returned no item, reading it back", op, id)
		todo, err = uc.todos.Get(ctx, id)
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if uc.epoch != epoch {
		return uc.outcome(err, errStale)
	}
	if err != nil {
		uc.log.Warnf("Use Case: Failed to %s todo %d: %v", op, id, err)
		uc.err = bannerFor(err)
		return domain.ResultFromError(err)
	}
	switch {
	case !uc.admit(id, seq):
		uc.log.Debugf("Use Case: Dropping stale %s response for todo %d", op, id)
	case !uc.items.replace(id, *todo):
		uc.log.Debugf("Use Case: Todo %d no longer present, %s result ignored", id, op)
	default:
		uc.log.Infof("Use Case: Todo %d %s applied", id, op)
	}
	return domain.OK()
}

func (uc *todoUseCase) begin() (uint64, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if !uc.active {
		return 0, false
	}
	uc.err = ""
	return uc.epoch, true
}

func (uc *todoUseCase) issue() uint64 {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.nextSeq++
	return uc.nextSeq
}

// admit reports whether a successful response for request seq is newer than
// anything applied to id so far, and records it if so. Caller holds mu.
func (uc *todoUseCase) admit(id int64, seq uint64) bool {
	if seq <= uc.applied[id] {
		return false
	}
	uc.applied[id] = seq
	return true
}

// outcome reports the result of a call whose response was discarded.
func (uc *todoUseCase) outcome(err, discarded error) domain.Result {
	if err != nil {
		return domain.ResultFromError(err)
	}
	return domain.ResultFromError(discarded)
}

func computeStats(items []domain.Todo) domain.TodoStats {
	stats := domain.TodoStats{Total: len(items)}
	for _, t := range items {
		if t.Status {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats
}
