// Package session holds the bearer credential of the signed-in user.
//
// Tokens are issued by the backend. The client cannot verify the signature,
// so it only reads the subject and expiry; the backend rejects forged tokens.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jask/calendarspent/internal/secrets"
)

var (
	ErrInvalid = errors.New("invalid session token")
	ErrExpired = errors.New("session expired")
	ErrNone    = errors.New("not signed in")
)

const secretName = "session"

// Session is a parsed bearer token.
type Session struct {
	UserID    string
	Token     string
	ExpiresAt time.Time // zero when the token carries no expiry
}

// Parse reads the subject and expiry out of a JWT.
func Parse(token string) (Session, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Session{}, ErrNone
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalid)
	}
	s := Session{UserID: claims.Subject, Token: token}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Check returns ErrNone, ErrExpired or nil.
func (s Session) Check(now time.Time) error {
	if s.Token == "" || s.UserID == "" {
		return ErrNone
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return ErrExpired
	}
	return nil
}

// Header is the Authorization header value.
func (s Session) Header() string { return "Bearer " + s.Token }

// Save stores the token in the encrypted credential store.
func Save(store *secrets.Store, s Session) error {
	return store.Put(secretName, s.Token)
}

// Load reads and parses the stored token. It returns ErrNone when nobody is
// signed in.
func Load(store *secrets.Store) (Session, error) {
	token, err := store.Get(secretName)
	if errors.Is(err, secrets.ErrNotFound) {
		return Session{}, ErrNone
	}
	if err != nil {
		return Session{}, err
	}
	return Parse(token)
}

// Clear signs the user out.
func Clear(store *secrets.Store) error {
	return store.Delete(secretName)
}
