// Package auth holds the placeholder user session and per-device preferences.
// Nothing here verifies credentials.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// UserKey is where the session record is persisted.
const UserKey = "session.user"

var (
	// ErrNotSignedIn is returned by operations that need a user.
	ErrNotSignedIn = errors.New("no user signed in")

	// ErrInvalidCredentials is returned for malformed email or empty password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// userNamespace scopes sign-in IDs derived from an email address.
var userNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://pantry.local/users"))

// SignOutHook runs after the session record is removed.
type SignOutHook func(ctx context.Context) error

// Session holds the nullable current user.
type Session struct {
	store  contract.KVStore
	logger *slog.Logger
	mu     sync.RWMutex
	user   *schema.User
	hooks  []SignOutHook
}

// NewSession returns a signed-out session over store. Call Load to restore a saved user.
func NewSession(store contract.KVStore, logger *slog.Logger) *Session {
	return &Session{store: store, logger: contract.LoggerOrDiscard(logger)}
}

// OnSignOut registers a hook. Hooks run in registration order.
func (s *Session) OnSignOut(hook SignOutHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

// Current returns a copy of the signed-in user, or nil.
func (s *Session) Current() *schema.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	u.FavoriteRecipes = slices.Clone(s.user.FavoriteRecipes)
	return &u
}

func (s *Session) read(ctx context.Context) (*schema.User, error) {
	data, err := s.store.Get(ctx, UserKey)
	if errors.Is(err, contract.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u schema.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Session) write(ctx context.Context, u *schema.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, UserKey, data)
}

// Load restores the persisted user. Read errors are logged and leave the session signed out.
func (s *Session) Load(ctx context.Context) *schema.User {
	u, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("error loading stored user", "err", err)
		u = nil
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return s.Current()
}

// Refresh re-reads the persisted user. Unlike Load, a read error keeps the current user.
func (s *Session) Refresh(ctx context.Context) *schema.User {
	u, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("error refreshing user", "err", err)
		return s.Current()
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	return s.Current()
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || strings.TrimSpace(password) == "" {
		return ErrInvalidCredentials
	}
	return nil
}

func usernameFromEmail(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

func (s *Session) establish(ctx context.Context, u *schema.User, action string) (*schema.User, error) {
	if err := s.write(ctx, u); err != nil {
		s.logger.Error(action+" error", "err", err)
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.logger.Info(action, "user", u.ID)
	return s.Current(), nil
}

// SignIn creates a session for email. The user ID is derived from the
// email so repeated sign-ins yield the same user.
func (s *Session) SignIn(ctx context.Context, email, password string) (*schema.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	u := &schema.User{
		ID:              uuid.NewSHA1(userNamespace, []byte(strings.ToLower(email))).String(),
		Email:           email,
		Username:        usernameFromEmail(email),
		FavoriteRecipes: []string{},
	}
	return s.establish(ctx, u, "sign in")
}

// SignUp creates a new user with a random ID. An empty username falls back to the email's local part.
func (s *Session) SignUp(ctx context.Context, email, password, username string) (*schema.User, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = usernameFromEmail(email)
	}
	u := &schema.User{
		ID:              uuid.NewString(),
		Email:           email,
		Username:        username,
		FavoriteRecipes: []string{},
	}
	return s.establish(ctx, u, "sign up")
}

// SignOut removes the session record and runs every sign-out hook, even when
// an earlier step failed. All failures are joined into the returned error.
func (s *Session) SignOut(ctx context.Context) error {
	var errs []error
	if err := s.store.Delete(ctx, UserKey); err != nil {
		errs = append(errs, fmt.Errorf("failed to remove session: %w", err))
	}

	s.mu.Lock()
	s.user = nil
	hooks := append([]SignOutHook(nil), s.hooks...)
	s.mu.Unlock()

	for _, hook := range hooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("sign out error", "err", err)
		return err
	}
	s.logger.Info("signed out")
	return nil
}

// UpdateProfile applies the non-nil fields of updates to the current user.
func (s *Session) UpdateProfile(ctx context.Context, updates schema.ProfileUpdate) (*schema.User, error) {
	current := s.Current()
	if current == nil {
		return nil, ErrNotSignedIn
	}
	if updates.Email != nil {
		if !strings.Contains(*updates.Email, "@") {
			return nil, ErrInvalidCredentials
		}
		current.Email = *updates.Email
	}
	if updates.Username != nil {
		current.Username = *updates.Username
	}
	if updates.Avatar != nil {
		current.Avatar = *updates.Avatar
	}
	return s.establish(ctx, current, "update profile")
}
