package store

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"homefinder-client/internal/model"
	"homefinder-client/internal/observability/metrics"
	"homefinder-client/internal/storage"
	"homefinder-client/pkg/apierror"
)

// SessionStorageKey is where the session is persisted.
const SessionStorageKey = "auth-storage"

// SessionStatus is the authentication lifecycle state.
type SessionStatus string

const (
	StatusAnonymous      SessionStatus = "anonymous"
	StatusAuthenticating SessionStatus = "authenticating"
	StatusAuthenticated  SessionStatus = "authenticated"
	// StatusError is an unauthenticated session whose last attempt failed.
	StatusError SessionStatus = "error"
)

// User-facing session messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgLoginFailed        = "An error occurred. Please try again."
	msgRegisterFailed     = "Registration failed. Please try again."
	msgSessionExpired     = "Session expired. Please login again."
	msgProfileFailed      = "Failed to update profile"
	msgLogoutFailed       = "Logout failed on the server; local session cleared"
	msgResetFailed        = "Failed to request password reset"
)

// SessionState is a snapshot of the session.
type SessionState struct {
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
	Error           string
	Status          SessionStatus
}

type persistedSession struct {
	State struct {
		User            *model.User `json:"user"`
		IsAuthenticated bool        `json:"isAuthenticated"`
	} `json:"state"`
	Version int `json:"version"`
}

// SessionStore tracks the signed-in user and persists it across restarts.
type SessionStore struct {
	api     API
	storage storage.Storage
	logger  *slog.Logger

	mu    sync.RWMutex
	state SessionState
	subs  subscribers
}

// NewSessionStore creates an anonymous session. Call Rehydrate to restore a
// persisted one.
func NewSessionStore(api API, st storage.Storage, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	if st == nil {
		st = storage.NewMemoryStorage()
	}
	return &SessionStore{
		api:     api,
		storage: st,
		logger:  logger.With(slog.String("store", "session")),
		state:   SessionState{Status: StatusAnonymous},
	}
}

// Subscribe registers fn to run after every state change.
func (s *SessionStore) Subscribe(fn func()) (unsubscribe func()) {
	return s.subs.add(fn)
}

// State returns a snapshot of the session.
func (s *SessionStore) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.User = s.state.User.Clone()
	return st
}

// User returns the signed-in user, or nil.
func (s *SessionStore) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User.Clone()
}

// ViewerID returns the signed-in user's id, or "".
func (s *SessionStore) ViewerID() model.ID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.IsAuthenticated || s.state.User == nil {
		return ""
	}
	return s.state.User.ID
}

// IsAuthenticated reports whether a user is signed in.
func (s *SessionStore) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated
}

// Error returns the last user-facing error message.
func (s *SessionStore) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Error
}

// ClearError resets the error message.
func (s *SessionStore) ClearError() {
	s.update(func(st *SessionState) {
		st.Error = ""
		if st.Status == StatusError {
			st.Status = StatusAnonymous
		}
	})
}

func (s *SessionStore) update(fn func(*SessionState)) {
	s.mu.Lock()
	fn(&s.state)
	s.mu.Unlock()
	s.subs.notify()
}

// fail records a failed attempt and leaves the session unauthenticated.
func (s *SessionStore) fail(msg string) {
	s.update(func(st *SessionState) {
		st.IsLoading = false
		st.Error = msg
		if !st.IsAuthenticated {
			st.Status = StatusError
		}
	})
}

// Login authenticates with email and password. It reports success; on
// failure the reason is in Error().
func (s *SessionStore) Login(ctx context.Context, email, password string) bool {
	creds := model.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		s.fail(err.Error())
		return false
	}

	s.update(func(st *SessionState) {
		st.IsLoading = true
		st.Error = ""
		st.Status = StatusAuthenticating
	})

	var body json.RawMessage
	if _, err := s.api.Post(ctx, "/auth/login", creds, &body); err != nil {
		msg := apierror.MessageOr(err, msgLoginFailed)
		if apierror.StatusOf(err) == http.StatusUnauthorized {
			msg = msgInvalidCredentials
		}
		s.logger.Info("login failed", slog.String("error", err.Error()))
		s.fail(msg)
		return false
	}

	user := decodeUser(body)
	if user == nil {
		user = &model.User{Email: email}
	}
	s.signIn(ctx, user)
	return true
}

// Register creates an account and signs it in. It returns the response
// status: 201 on success, 400 when the form is invalid (nothing is sent) and
// 0 when the backend could not be reached.
func (s *SessionStore) Register(ctx context.Context, in model.RegisterInput) int {
	if err := in.Validate(); err != nil {
		s.fail(err.Error())
		return http.StatusBadRequest
	}

	s.update(func(st *SessionState) {
		st.IsLoading = true
		st.Error = ""
		st.Status = StatusAuthenticating
	})

	var body json.RawMessage
	status, err := s.api.Post(ctx, "/auth/register", in, &body)
	if err != nil {
		s.logger.Info("registration failed", slog.String("error", err.Error()))
		s.fail(apierror.MessageOr(err, msgRegisterFailed))
		return apierror.StatusOf(err)
	}

	user := decodeUser(body)
	if user == nil || user.Username == "" {
		var created struct {
			UserID model.ID `json:"user_id"`
		}
		_ = json.Unmarshal(body, &created)
		user = &model.User{
			ID:          created.UserID,
			Username:    in.Username,
			Email:       in.Email,
			Role:        model.RoleUser,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			PhoneNumber: in.PhoneNumber,
		}
	}
	s.signIn(ctx, user)
	return status
}

func (s *SessionStore) signIn(ctx context.Context, user *model.User) {
	s.update(func(st *SessionState) {
		st.User = user
		st.IsAuthenticated = true
		st.IsLoading = false
		st.Error = ""
		st.Status = StatusAuthenticated
	})
	s.persist(ctx)
}

// decodeUser reads the user from {"user": {...}} or from the body itself.
func decodeUser(body json.RawMessage) *model.User {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var wrapped struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.User != nil {
		return wrapped.User
	}
	var user model.User
	if err := json.Unmarshal(body, &user); err != nil || (user.ID == "" && user.Email == "") {
		return nil
	}
	return &user
}

// Logout ends the session. Local state is always cleared; a backend failure
// is reported through the returned error and Error().
func (s *SessionStore) Logout(ctx context.Context) error {
	_, err := s.api.Post(ctx, "/auth/logout", nil, nil)

	s.update(func(st *SessionState) {
		*st = SessionState{Status: StatusAnonymous}
		if err != nil {
			st.Error = msgLogoutFailed
		}
	})
	s.persist(ctx)

	if err != nil {
		s.logger.Warn("logout request failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ExpireSession clears the session after the backend rejected its
// credentials. It issues no requests.
func (s *SessionStore) ExpireSession() {
	s.update(func(st *SessionState) {
		st.User = nil
		st.IsAuthenticated = false
		st.IsLoading = false
		st.Error = msgSessionExpired
		st.Status = StatusAnonymous
	})
	metrics.ObserveSessionExpired()
	s.logger.Info("session expired")
	s.persist(context.Background())
}

// UpdateProfile merges upd into the user immediately and sends it to the
// backend. On failure the previous profile is restored.
func (s *SessionStore) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) error {
	if err := upd.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return apierror.Unauthorized("not signed in")
	}
	previous := s.state.User.Clone()
	txn := Begin(previous, func() {
		merged := upd.Apply(*previous)
		s.state.User = &merged
		s.state.Error = ""
	}, func(prev *model.User) {
		// A 401 during the request already ended the session; keep it ended.
		if s.state.User != nil && s.state.User.ID == prev.ID {
			s.state.User = prev
		}
	})
	s.mu.Unlock()
	s.subs.notify()
	s.persist(ctx)

	var updated model.User
	if _, err := s.api.Put(ctx, "/users/profile", upd, &updated); err != nil {
		s.mu.Lock()
		txn.Rollback()
		if s.state.IsAuthenticated {
			s.state.Error = apierror.MessageOr(err, msgProfileFailed)
		}
		s.mu.Unlock()
		s.subs.notify()
		s.persist(ctx)
		metrics.ObserveRollback("update_profile")
		s.logger.Warn("profile update failed", slog.String("error", err.Error()))
		return err
	}
	txn.Commit()

	if updated.ID != "" {
		s.update(func(st *SessionState) {
			if st.User != nil && st.User.ID == updated.ID {
				st.User = &updated
			}
		})
		s.persist(ctx)
	}
	return nil
}

// RequestPasswordReset asks the backend to email a reset link.
func (s *SessionStore) RequestPasswordReset(ctx context.Context, email string) error {
	req := model.PasswordResetRequest{Email: email}
	if err := req.Validate(); err != nil {
		return err
	}
	if _, err := s.api.Post(ctx, "/auth/reset-password-request", req, nil); err != nil {
		s.update(func(st *SessionState) { st.Error = apierror.MessageOr(err, msgResetFailed) })
		return err
	}
	return nil
}

// persist writes {user, isAuthenticated}. Failures are logged and ignored.
func (s *SessionStore) persist(ctx context.Context) {
	s.mu.RLock()
	var p persistedSession
	p.State.User = s.state.User.Clone()
	p.State.IsAuthenticated = s.state.IsAuthenticated
	s.mu.RUnlock()

	data, err := json.Marshal(p)
	if err != nil {
		s.logger.Warn("encode session", slog.String("error", err.Error()))
		return
	}
	if err := s.storage.SetItem(ctx, SessionStorageKey, data); err != nil {
		s.logger.Warn("persist session", slog.String("error", err.Error()))
	}
}

// Rehydrate restores the persisted session as stored. Missing or unreadable
// data leaves the session anonymous; loading and error are always reset.
func (s *SessionStore) Rehydrate(ctx context.Context) {
	var p persistedSession
	data, err := s.storage.GetItem(ctx, SessionStorageKey)
	if err == nil {
		if jerr := json.Unmarshal(data, &p); jerr != nil {
			s.logger.Warn("discarding corrupted session", slog.String("error", jerr.Error()))
			p = persistedSession{}
		}
	}

	s.update(func(st *SessionState) {
		st.User = p.State.User
		st.IsAuthenticated = p.State.IsAuthenticated && p.State.User != nil
		st.IsLoading = false
		st.Error = ""
		st.Status = StatusAnonymous
		if st.IsAuthenticated {
			st.Status = StatusAuthenticated
		}
	})
}
