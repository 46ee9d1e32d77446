package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func newAuthenticator() *PasswordAuthenticator {
	return NewPasswordAuthenticator(memory.New()).WithCost(bcrypt.MinCost)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	a := newAuthenticator()

	user, err := a.Register(ctx, " Alice@Example.com ", "Alice", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	got, err := a.Authenticate(ctx, "ALICE@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = a.Authenticate(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	a := newAuthenticator()
	_, err := a.Register(ctx, "bob@example.com", "Bob", "long-enough")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"weak password", "carol@example.com", "short", ErrWeakPassword},
		{"invalid email", "not-an-email", "long-enough", ErrInvalidEmail},
		{"empty email", "", "long-enough", ErrInvalidEmail},
		{"duplicate email", "BOB@example.com", "long-enough", ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Register(ctx, tt.email, "X", tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	user := &models.User{ID: "u1", Email: "u1@example.com"}

	token, err := m.Generate(user)
	require.NoError(t, err)

	claims, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1@example.com", claims.Email)
}

func TestJWTValidateRejects(t *testing.T) {
	user := &models.User{ID: "u1", Email: "u1@example.com"}

	other, err := NewJWTManager("other-secret", time.Hour).Generate(user)
	require.NoError(t, err)
	expired, err := NewJWTManager("test-secret", -time.Hour).Generate(user)
	require.NoError(t, err)

	m := NewJWTManager("test-secret", time.Hour)
	for name, token := range map[string]string{
		"wrong secret": other,
		"expired":      expired,
		"garbage":      "not.a.token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := m.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTExpiresWithClock(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewJWTManager("test-secret", time.Hour)
	m.now = func() time.Time { return now }

	token, err := m.Generate(&models.User{ID: "u1"})
	require.NoError(t, err)

	now = now.Add(59 * time.Minute)
	_, err = m.Validate(token)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
