// Package session manages the persisted client session: the bearer token and
// user profile stored on the local device. Absence of either means logged out;
// presence means every API call attaches the token.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrNotLoggedIn is returned when no session is stored.
var ErrNotLoggedIn = errors.New("not logged in")

// User is the profile the backend returns at login.
type User struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Session is an authenticated identity plus its bearer token.
type Session struct {
	Token    string `json:"token"`
	User     User   `json:"user"`
	DeviceID string `json:"device_id"`
}

// TokenExpiry returns the exp claim of the bearer token, if present. The
// token is not verified here; the server is the authority on validity and
// answers 401 for anything stale. The claim is only used to warn the user
// before a call is even attempted.
func (s Session) TokenExpiry() (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.Token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries an exp claim in the past.
func (s Session) Expired() bool {
	exp, ok := s.TokenExpiry()
	return ok && time.Now().After(exp)
}

// Store persists sessions to a JSON file. It is safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store writing to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the session file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "quickplate", "session.json"), nil
}

// Load reads the stored session. Returns ErrNotLoggedIn when no session file
// exists or the stored record has no token.
func (s *Store) Load() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Session{}, ErrNotLoggedIn
		}
		return Session{}, fmt.Errorf("read session file: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		// A corrupt session file is indistinguishable from logged out.
		return Session{}, ErrNotLoggedIn
	}
	if sess.Token == "" || sess.User.ID == 0 {
		return Session{}, ErrNotLoggedIn
	}
	return sess, nil
}

// Save writes the session. A device id is assigned on first save and kept
// stable across logins.
func (s *Store) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess.Token == "" {
		return errors.New("session token is required")
	}
	if sess.DeviceID == "" {
		sess.DeviceID = s.existingDeviceID()
		if sess.DeviceID == "" {
			sess.DeviceID = uuid.NewString()
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is a no-op.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (s *Store) existingDeviceID() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	var prev Session
	if err := json.Unmarshal(data, &prev); err != nil {
		return ""
	}
	return prev.DeviceID
}
