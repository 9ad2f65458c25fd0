package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/cloudtodo/internal/store/jsonstore"
)

const (
	credFileName = "credentials.json"

	// TokenEnv overrides the stored credential when set.
	TokenEnv = "CLOUDTODO_TOKEN"
	// HomeEnv overrides the state directory.
	HomeEnv = "CLOUDTODO_HOME"
)

var (
	ErrEmptyToken = errors.New("empty token")
	ErrExpired    = errors.New("session expired")
	// ErrEnvToken is returned while CLOUDTODO_TOKEN decides the session.
	ErrEnvToken = errors.New("token is provided by " + TokenEnv)
)

type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // "env" | "file"
	CreatedAt time.Time  `json:"created_at"` // when we saved to file
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token carries an expiry that is before now.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti.ExpiresAt != nil && !now.Before(*ti.ExpiresAt)
}

// StateDir returns $CLOUDTODO_HOME or ~/.cloudtodo.
func StateDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(HomeEnv)); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".cloudtodo"), nil
}

// Store keeps the signed-in credential in a directory.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) path() string { return filepath.Join(s.dir, credFileName) }

// Get returns the current token, nil when not logged in.
func (s *Store) Get() (*TokenInfo, error) {
	// 1) env override
	if token := envToken(); token != "" {
		return &TokenInfo{Token: token, Source: "env", ExpiresAt: tokenExpiry(token)}, nil
	}

	// 2) file
	var ti TokenInfo
	found, err := jsonstore.Load(s.path(), &ti)
	if err != nil {
		return nil, fmt.Errorf("credentials: %w", err)
	}
	if !found {
		return nil, nil // not logged in
	}
	ti.Token = stripBearer(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	return &ti, nil
}

// Set saves token with owner-only permissions.
func (s *Store) Set(token string, expires *time.Time) error {
	token = stripBearer(token)
	if token == "" {
		return ErrEmptyToken
	}
	ti := TokenInfo{
		Token:     token,
		Source:    "file",
		CreatedAt: s.now(),
		ExpiresAt: expires,
	}
	if err := jsonstore.Save(s.path(), ti, 0o600); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

func (s *Store) Delete() error {
	return jsonstore.Remove(s.path())
}

// SignIn stores token and opens a session for it.
func (s *Store) SignIn(token string) (*Session, error) {
	token = stripBearer(token)
	if token == "" {
		return nil, ErrEmptyToken
	}
	if envToken() != "" {
		return nil, ErrEnvToken
	}
	exp := tokenExpiry(token)
	if exp != nil && !s.now().Before(*exp) {
		return nil, ErrExpired
	}
	if err := s.Set(token, exp); err != nil {
		return nil, err
	}
	return s.Session()
}

// Session returns the active session, or nil when signed out.
// A stored token past its expiry yields ErrExpired.
func (s *Store) Session() (*Session, error) {
	ti, err := s.Get()
	if err != nil || ti == nil {
		return nil, err
	}
	if ti.Expired(s.now()) {
		return nil, ErrExpired
	}
	return &Session{store: s, info: *ti, user: UserFromToken(ti.Token)}, nil
}

// Session is a signed-in user. It is what the view gate hands to the app.
type Session struct {
	store *Store
	info  TokenInfo
	user  User
}

func (s *Session) CurrentUser() User { return s.user }
func (s *Session) Token() string     { return s.info.Token }
func (s *Session) Info() TokenInfo   { return s.info }

// SignOut forgets the stored credential. Tokens supplied through the
// environment cannot be removed here and yield ErrEnvToken.
func (s *Session) SignOut() error {
	if s.info.Source == "env" {
		return ErrEnvToken
	}
	return s.store.Delete()
}

func envToken() string {
	return stripBearer(os.Getenv(TokenEnv))
}

// stripBearer trims s and drops a leading "Bearer" scheme. A bare scheme
// with no credential is empty.
func stripBearer(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "bearer") {
		return ""
	}
	if len(s) > 7 && strings.EqualFold(s[:7], "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
