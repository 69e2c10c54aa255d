package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"todo_client/internal/clients"
	"todo_client/internal/domain"

	"github.com/sirupsen/logrus"
)

var _ domain.SessionUseCase = (*sessionUseCase)(nil)

var errNotAuthenticated = errors.New("You must be logged in")

// sessionUseCase owns authentication state and is the only writer of the
// token store besides the HTTP client's 401 reaction.
type sessionUseCase struct {
	auth   clients.AuthClient
	tokens domain.TokenStore
	log    *logrus.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     domain.SessionState
	listeners []domain.SessionListener
	initDone  chan struct{}

	// tokenMu makes check-then-write sequences on the token store atomic.
	// Lock order is mu before tokenMu.
	tokenMu sync.Mutex
}

func NewSessionUseCase(auth clients.AuthClient, tokens domain.TokenStore, logger *logrus.Logger) domain.SessionUseCase {
	return &sessionUseCase{
		auth:     auth,
		tokens:   tokens,
		log:      logger,
		now:      time.Now,
		initDone: make(chan struct{}),
	}
}

func (uc *sessionUseCase) State() domain.SessionState {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return snapshot(uc.state)
}

func (uc *sessionUseCase) Subscribe(l domain.SessionListener) {
	uc.mu.Lock()
	uc.listeners = append(uc.listeners, l)
	uc.mu.Unlock()
}

// Initialize restores the session from a stored token. Concurrent callers
// wait for the first one to finish; later calls return the current state.
func (uc *sessionUseCase) Initialize(ctx context.Context) domain.SessionState {
	started := uc.update(func(s *domain.SessionState) bool {
		if s.Phase != domain.PhaseUninitialized {
			return false
		}
		s.Phase = domain.PhaseInitializing
		s.Loading = true
		return true
	})
	if !started {
		if uc.State().Phase == domain.PhaseInitializing {
			select {
			case <-uc.initDone:
			case <-ctx.Done():
			}
		}
		return uc.State()
	}
	defer close(uc.initDone)

	token, err := uc.tokens.Get()
	if err != nil {
		uc.log.Warnf("Use Case: Could not read stored token, starting anonymous: %v", err)
		uc.clearToken()
		token = ""
	}

	discard := false
	switch {
	case token == "":
		uc.log.Debug("Use Case: No stored token, session is anonymous")
	case tokenExpired(token, uc.now()):
		uc.log.Info("Use Case: Stored token has expired, discarding it")
		discard = true
	default:
		user, err := uc.auth.GetProfile(ctx)
		if err != nil {
			uc.log.Warnf("Use Case: Session restore failed, discarding token: %v", err)
			discard = true
			break
		}
		uc.log.Infof("Use Case: Session restored for user %s", user.Username)
		uc.update(func(s *domain.SessionState) bool {
			if s.Phase != domain.PhaseInitializing {
				return false
			}
			s.User = user
			s.Phase = domain.PhaseAuthenticated
			s.Loading = false
			s.Epoch++
			return true
		})
		return uc.State()
	}

	// A login that finished while the restore was in flight owns the store
	// now; only a still-initializing session may discard the token it read.
	uc.update(func(s *domain.SessionState) bool {
		if s.Phase != domain.PhaseInitializing {
			return false
		}
		if discard {
			uc.discardToken(token)
		}
		s.User = nil
		s.Phase = domain.PhaseAnonymous
		s.Loading = false
		return true
	})
	return uc.State()
}

func (uc *sessionUseCase) Login(ctx context.Context, creds domain.Credentials) domain.Result {
	creds.Username = strings.TrimSpace(creds.Username)
	creds.Email = strings.TrimSpace(creds.Email)
	if err := ValidateLogin(creds); err != nil {
		uc.log.Debugf("Use Case: Login rejected by validation: %v", err)
		return domain.ResultFromError(err)
	}

	uc.beginAuthRequest()
	resp, err := uc.auth.Login(ctx, creds)
	if err != nil {
		uc.log.Warnf("Use Case: Login failed: %v", err)
		return uc.failAuthRequest(err)
	}
	if err := uc.establish(ctx, resp); err != nil {
		uc.log.Warnf("Use Case: Login could not establish a session: %v", err)
		return uc.failAuthRequest(err)
	}
	return domain.OK()
}

// Register supports both backend styles: a token in the response logs the
// user in immediately, otherwise the session stays anonymous and the caller
// continues with Login.
func (uc *sessionUseCase) Register(ctx context.Context, req domain.RegisterRequest) domain.Result {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
	if err := ValidateRegistration(req); err != nil {
		uc.log.Debugf("Use Case: Registration rejected by validation: %v", err)
		return domain.ResultFromError(err)
	}

	uc.beginAuthRequest()
	resp, err := uc.auth.Register(ctx, req)
	if err != nil {
		uc.log.Warnf("Use Case: Registration failed for %s: %v", req.Username, err)
		return uc.failAuthRequest(err)
	}

	if resp.Token == "" {
		uc.log.Infof("Use Case: Registered %s, explicit login required", req.Username)
		uc.update(func(s *domain.SessionState) bool {
			s.Loading = false
			return true
		})
		return domain.OK()
	}

	if err := uc.establish(ctx, resp); err != nil {
		uc.log.Warnf("Use Case: Registration auto-login failed: %v", err)
		return uc.failAuthRequest(err)
	}
	return domain.OK()
}

// Logout never depends on the network: local state is cleared even when the
// remote call fails.
func (uc *sessionUseCase) Logout(ctx context.Context) {
	uc.update(func(s *domain.SessionState) bool {
		s.Loading = true
		return true
	})

	if token, _ := uc.tokens.Get(); token != "" {
		if err := uc.auth.Logout(ctx); err != nil {
			uc.log.Warnf("Use Case: Remote logout failed, clearing local session anyway: %v", err)
		}
	}
	uc.clearToken()
	uc.deauthenticate()
	uc.log.Info("Use Case: Logged out")
}

func (uc *sessionUseCase) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) domain.Result {
	epoch, ok := uc.authenticatedEpoch()
	if !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := ValidateProfilePatch(patch); err != nil {
		return domain.ResultFromError(err)
	}

	user, err := uc.auth.UpdateProfile(ctx, patch)
	if err != nil {
		uc.log.Warnf("Use Case: Profile update failed: %v", err)
		return domain.ResultFromError(err)
	}
	if user.IsZero() {
		// The server acknowledged without a representation; it stays
		// authoritative, so read it back rather than merging locally.
		if user, err = uc.auth.GetProfile(ctx); err != nil {
			uc.log.Warnf("Use Case: Profile re-fetch after update failed: %v", err)
			return domain.ResultFromError(err)
		}
	}
	uc.replaceUser(epoch, user)
	return domain.OK()
}

func (uc *sessionUseCase) RefreshProfile(ctx context.Context) domain.Result {
	epoch, ok := uc.authenticatedEpoch()
	if !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}
	user, err := uc.auth.GetProfile(ctx)
	if err != nil {
		uc.log.Warnf("Use Case: Profile refresh failed: %v", err)
		return domain.ResultFromError(err)
	}
	uc.replaceUser(epoch, user)
	return domain.OK()
}

func (uc *sessionUseCase) ChangePassword(ctx context.Context, current, next, confirm string) domain.Result {
	if _, ok := uc.authenticatedEpoch(); !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}
	if err := ValidatePasswordChange(current, next, confirm); err != nil {
		return domain.ResultFromError(err)
	}
	if err := uc.auth.ChangePassword(ctx, current, next); err != nil {
		uc.log.Warnf("Use Case: Password change failed: %v", err)
		return domain.ResultFromError(err)
	}
	uc.log.Info("Use Case: Password changed")
	return domain.OK()
}

func (uc *sessionUseCase) DeleteAccount(ctx context.Context) domain.Result {
	if _, ok := uc.authenticatedEpoch(); !ok {
		return domain.ResultFromError(errNotAuthenticated)
	}
	if err := uc.auth.DeleteAccount(ctx); err != nil {
		uc.log.Warnf("Use Case: Account deletion failed: %v", err)
		return domain.ResultFromError(err)
	}
	uc.clearToken()
	uc.deauthenticate()
	uc.log.Info("Use Case: Account deleted, session closed")
	return domain.OK()
}

// HandleUnauthorized is the HTTP client's 401 callback. The token store has
// already been cleared; the error banner is reset.
func (uc *sessionUseCase) HandleUnauthorized() {
	changed := uc.update(func(s *domain.SessionState) bool {
		if s.User == nil {
			return false
		}
		uc.log.Warn("Use Case: Session expired, switching to anonymous")
		*s = domain.SessionState{Phase: domain.PhaseAnonymous, Epoch: s.Epoch + 1}
		return true
	})
	if !changed {
		uc.log.Debug("Use Case: 401 received while already anonymous")
	}
}

func (uc *sessionUseCase) ClearError() {
	uc.update(func(s *domain.SessionState) bool {
		if s.Error == "" {
			return false
		}
		s.Error = ""
		return true
	})
}

// --- Helper Functions ---

func (uc *sessionUseCase) establish(ctx context.Context, resp *domain.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("Login failed: no token issued")
	}

	previous, err := uc.swapToken(resp.Token)
	if err != nil {
		uc.log.Errorf("Use Case: Failed to persist token: %v", err)
		return errors.New("Could not store session token")
	}

	user := resp.User
	if user.IsZero() {
		fetched, err := uc.auth.GetProfile(ctx)
		if err != nil {
			// A 401 has already emptied the store through the HTTP client;
			// writing the old token back would outlive the session.
			if !errors.Is(err, domain.ErrAuthExpired) {
				uc.restoreToken(resp.Token, previous)
			}
			return err
		}
		user = fetched
	}

	uc.update(func(s *domain.SessionState) bool {
		s.User = user
		s.Phase = domain.PhaseAuthenticated
		s.Loading = false
		s.Error = ""
		s.Epoch++
		return true
	})
	uc.log.Infof("Use Case: Authenticated as %s (ID: %d)", user.Username, user.ID)
	return nil
}

func (uc *sessionUseCase) swapToken(token string) (string, error) {
	uc.tokenMu.Lock()
	defer uc.tokenMu.Unlock()
	previous, _ := uc.tokens.Get()
	return previous, uc.tokens.Set(token)
}

// restoreToken puts previous back, unless the store has moved on from issued.
func (uc *sessionUseCase) restoreToken(issued, previous string) {
	uc.tokenMu.Lock()
	defer uc.tokenMu.Unlock()
	if current, _ := uc.tokens.Get(); current != issued {
		return
	}
	var err error
	if previous == "" {
		err = uc.tokens.Clear()
	} else {
		err = uc.tokens.Set(previous)
	}
	if err != nil {
		uc.log.Errorf("Use Case: Failed to restore previous token: %v", err)
	}
}

// discardToken clears the store only if it still holds token.
func (uc *sessionUseCase) discardToken(token string) {
	uc.tokenMu.Lock()
	defer uc.tokenMu.Unlock()
	if current, _ := uc.tokens.Get(); current != token {
		uc.log.Debug("Use Case: Token replaced meanwhile, keeping it")
		return
	}
	if err := uc.tokens.Clear(); err != nil {
		uc.log.Errorf("Use Case: Failed to clear token store: %v", err)
	}
}

func (uc *sessionUseCase) clearToken() {
	if err := uc.tokens.Clear(); err != nil {
		uc.log.Errorf("Use Case: Failed to clear token store: %v", err)
	}
}

func (uc *sessionUseCase) deauthenticate() {
	uc.update(func(s *domain.SessionState) bool {
		epoch := s.Epoch
		if s.User != nil {
			epoch++
		}
		*s = domain.SessionState{Phase: domain.PhaseAnonymous, Epoch: epoch}
		return true
	})
}

func (uc *sessionUseCase) beginAuthRequest() {
	uc.update(func(s *domain.SessionState) bool {
		s.Loading = true
		s.Error = ""
		return true
	})
}

// failAuthRequest records a failed login/register. A 401 reaction has
// already reset the banner, so it is left empty in that case.
func (uc *sessionUseCase) failAuthRequest(err error) domain.Result {
	uc.update(func(s *domain.SessionState) bool {
		s.Loading = false
		s.Error = bannerFor(err)
		return true
	})
	return domain.ResultFromError(err)
}

func (uc *sessionUseCase) authenticatedEpoch() (uint64, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.state.Epoch, uc.state.User != nil
}

func (uc *sessionUseCase) replaceUser(epoch uint64, user *domain.User) {
	applied := uc.update(func(s *domain.SessionState) bool {
		if s.User == nil || s.Epoch != epoch {
			return false
		}
		s.User = user
		return true
	})
	if !applied {
		uc.log.Debug("Use Case: Discarding profile for a session that has ended")
	}
}

// update applies fn under the lock and, when fn reports a change, notifies
// listeners outside it.
func (uc *sessionUseCase) update(fn func(s *domain.SessionState) bool) bool {
	uc.mu.Lock()
	prev := snapshot(uc.state)
	if !fn(&uc.state) {
		uc.mu.Unlock()
		return false
	}
	uc.state.IsAuthenticated = uc.state.User != nil
	next := snapshot(uc.state)
	listeners := append([]domain.SessionListener(nil), uc.listeners...)
	uc.mu.Unlock()

	for _, l := range listeners {
		l(prev, next)
	}
	return true
}

func snapshot(s domain.SessionState) domain.SessionState {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func bannerFor(err error) string {
	if errors.Is(err, domain.ErrAuthExpired) {
		return ""
	}
	return domain.ErrorMessage(err)
}
