package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/jask/calendarspent/internal/secrets"
)

func mint(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: sub}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestParse(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := mint(t, "user-1", exp)

	s, err := Parse("Bearer " + tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", s.UserID)
	require.Equal(t, tok, s.Token)
	require.True(t, exp.Equal(s.ExpiresAt))
	require.NoError(t, s.Check(time.Now()))
	require.ErrorIs(t, s.Check(exp), ErrExpired)
	require.Equal(t, "Bearer "+tok, s.Header())
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	_, err := Parse("")
	require.ErrorIs(t, err, ErrNone)

	_, err = Parse("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Parse(mint(t, "", time.Time{}))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestCheckWithoutExpiry(t *testing.T) {
	t.Parallel()

	s, err := Parse(mint(t, "user-2", time.Time{}))
	require.NoError(t, err)
	require.True(t, s.ExpiresAt.IsZero())
	require.NoError(t, s.Check(time.Now().Add(100*365*24*time.Hour)))
	require.ErrorIs(t, Session{}.Check(time.Now()), ErrNone)
}

func TestSaveLoadClear(t *testing.T) {
	t.Parallel()

	store := &secrets.Store{Dir: t.TempDir()}
	_, err := Load(store)
	require.ErrorIs(t, err, ErrNone)

	s, err := Parse(mint(t, "user-3", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, Save(store, s))

	got, err := Load(store)
	require.NoError(t, err)
	require.Equal(t, "user-3", got.UserID)

	require.NoError(t, Clear(store))
	_, err = Load(store)
	require.ErrorIs(t, err, ErrNone)
}
