package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, "alice@example.com", "hunter2hunter2")
		assert.ErrorIs(t, err, ErrUserExists)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := svc.Register(ctx, "bob@example.com", "short")
		assert.Error(t, err)
	})

	t.Run("login issues a verifiable token", func(t *testing.T) {
		token, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2")
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alice@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "whatever123")
		assert.ErrorIs(t, err, ErrInvalidLogin)
	})
}

func TestValidateToken_Expired(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol@example.com", "hunter2hunter2")
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)

	// Jump the clock past expiry.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	user, err := issuer.Register(context.Background(), "dave@example.com", "hunter2hunter2")
	require.NoError(t, err)
	token, err := issuer.GenerateToken(user)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	_, err := svc.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		_, err := BearerToken("")
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("malformed header", func(t *testing.T) {
		_, err := BearerToken("Basic dXNlcjpwYXNz")
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := BearerToken("Bearer ")
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("well-formed", func(t *testing.T) {
		token, err := BearerToken("Bearer abc.def.ghi")
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})
}
