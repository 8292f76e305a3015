package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sandeepkv93/joinboard/internal/model"
)

var (
	ErrNoSession      = errors.New("auth: no stored session")
	ErrInvalidSession = errors.New("auth: invalid stored session")
)

const issuer = "joinboard"

const secretBytes = 32

// LoadOrCreateSecret returns the signing key stored at path, writing a random one on
// first use. An empty path yields a key that lives only for this process.
func LoadOrCreateSecret(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if key := strings.TrimSpace(string(raw)); key != "" {
				return []byte(key), nil
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("auth: read session key: %w", err)
		}
	}

	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("auth: generate session key: %w", err)
	}
	key := hex.EncodeToString(buf)
	if path == "" {
		return []byte(key), nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(key+"\n"), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return []byte(key), nil
}

type sessionClaims struct {
	UserID     string `json:"id,omitempty"`
	RememberMe bool   `json:"rememberMe"`
	Guest      bool   `json:"guest,omitempty"`
	jwt.RegisteredClaims
}

// SessionFile persists the session as an HS256-signed token.
type SessionFile struct {
	path   string
	secret []byte
	now    func() time.Time
}

func NewSessionFile(path string, secret []byte) *SessionFile {
	return &SessionFile{path: strings.TrimSpace(path), secret: secret, now: time.Now}
}

func (f *SessionFile) Path() string { return f.path }

// Save writes the token through a temp file and rename.
func (f *SessionFile) Save(s model.Session) error {
	if f.path == "" {
		return nil
	}
	claims := sessionClaims{
		UserID:     s.UserID,
		RememberMe: s.RememberMe,
		Guest:      s.Guest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			IssuedAt: jwt.NewNumericDate(f.now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(f.secret)
	if err != nil {
		return fmt.Errorf("auth: sign session: %w", err)
	}

	dir := filepath.Dir(f.path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(signed+"\n"), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

func (f *SessionFile) Load() (model.Session, error) {
	if f.path == "" {
		return model.Session{}, ErrNoSession
	}
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Session{}, ErrNoSession
		}
		return model.Session{}, err
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return model.Session{}, ErrNoSession
	}

	var claims sessionClaims
	_, err = jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return f.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return model.Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	return model.Session{UserID: claims.UserID, RememberMe: claims.RememberMe, Guest: claims.Guest}, nil
}

// Clear removes the session file. A missing file is not an error.
func (f *SessionFile) Clear() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
