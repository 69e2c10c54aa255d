package domain

import "context"

type SessionPhase int

const (
	PhaseUninitialized SessionPhase = iota
	PhaseInitializing
	PhaseAuthenticated
	PhaseAnonymous
)

func (p SessionPhase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionState is a snapshot; IsAuthenticated is true iff User is non-nil.
// Epoch changes every time a user is established or cleared, never on a
// profile refresh, so observers can tell a new session from an edit.
type SessionState struct {
	User            *User
	IsAuthenticated bool
	Loading         bool
	Error           string
	Phase           SessionPhase
	Epoch           uint64
}

type CollectionState struct {
	Items   []Todo
	Loading bool
	Error   string
}

// Result is what controller operations hand back to the view layer in place
// of an error for expected failures.
type Result struct {
	Success     bool
	Error       string
	FieldErrors map[string]string
}

func OK() Result { return Result{Success: true} }

// SessionListener observes every session state change.
type SessionListener func(prev, next SessionState)

// TokenStore persists the bearer token. Get returns "" when none is stored.
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Clear() error
}

type SessionUseCase interface {
	Initialize(ctx context.Context) SessionState
	Login(ctx context.Context, creds Credentials) Result
	Register(ctx context.Context, req RegisterRequest) Result
	Logout(ctx context.Context)
	UpdateProfile(ctx context.Context, patch ProfilePatch) Result
	RefreshProfile(ctx context.Context) Result
	ChangePassword(ctx context.Context, current, next, confirm string) Result
	DeleteAccount(ctx context.Context) Result
	HandleUnauthorized()
	ClearError()
	State() SessionState
	Subscribe(l SessionListener)
}

type TodoUseCase interface {
	OnSessionChange(prev, next SessionState)
	Fetch(ctx context.Context) Result
	Create(ctx context.Context, task string) Result
	Update(ctx context.Context, id int64, patch TodoPatch) Result
	Toggle(ctx context.Context, id int64) Result
	SetStatus(ctx context.Context, id int64, done bool) Result
	Delete(ctx context.Context, id int64) Result
	Items(q TodoQuery) []Todo
	Stats() TodoStats
	State() CollectionState
	ClearError()
}
