package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradehub/internal/config"
)

func TestRegister_ValidationOrder(t *testing.T) {
	f := newFixture(t)
	f.register(t, "taken")

	valid := RegisterRequest{
		Username:        "newuser",
		DisplayName:     "New User",
		Email:           "new@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}

	tests := []struct {
		name    string
		mutate  func(r *RegisterRequest)
		message string
	}{
		{"short username wins over everything", func(r *RegisterRequest) {
			r.Username, r.DisplayName, r.Email, r.Password = "ab", "x", "bad", "1"
		}, "Username must be at least 3 characters long"},
		{"short display name", func(r *RegisterRequest) {
			r.DisplayName, r.Email = "x", "bad"
		}, "Display name must be at least 2 characters long"},
		{"email without at", func(r *RegisterRequest) {
			r.Email, r.Password = "bad", "1"
		}, "Please enter a valid email address"},
		{"short password", func(r *RegisterRequest) {
			r.Password, r.ConfirmPassword = "12345", "other"
		}, "Password must be at least 6 characters long"},
		{"short password counted in characters", func(r *RegisterRequest) {
			r.Password, r.ConfirmPassword = "ключ1", "ключ1"
		}, "Password must be at least 6 characters long"},
		{"passwords differ", func(r *RegisterRequest) {
			r.ConfirmPassword = "secret2"
		}, "Passwords do not match"},
		{"username taken ignoring case", func(r *RegisterRequest) {
			r.Username, r.Email = "TAKEN", "taken@example.com"
		}, "Username is already taken"},
		{"email taken ignoring case", func(r *RegisterRequest) {
			r.Email = "Taken@Example.com"
		}, "Email is already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			_, err := f.auth.Register(context.Background(), &req)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestRegister_MultibytePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, &RegisterRequest{
		Username:        "boris",
		DisplayName:     "Boris",
		Email:           "b@x.com",
		Password:        "пароль",
		ConfirmPassword: "пароль",
	})
	require.NoError(t, err)

	_, err = f.auth.Login(ctx, &LoginRequest{Username: "boris", Password: "пароль"})
	require.NoError(t, err)
}

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	session, err := f.auth.Register(context.Background(), &RegisterRequest{
		Username:        "  alice ",
		DisplayName:     "Alice A",
		Email:           "a@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.NoError(t, err)

	user := session.User
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, DefaultAvatar, user.Avatar)
	assert.True(t, user.IsOnline)
	assert.Zero(t, user.Stats.Rating)
	assert.Zero(t, user.Stats.TotalTrades)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	claims, err := f.auth.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.WithinDuration(t, time.Now().Add(168*time.Hour), session.ExpiresAt, time.Minute)
}

func TestRegister_DuplicateSentinels(t *testing.T) {
	f := newFixture(t)
	f.register(t, "alice")

	_, err := f.auth.Register(context.Background(), &RegisterRequest{
		Username: "Alice", DisplayName: "Alice B", Email: "b@x.com",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = f.auth.Register(context.Background(), &RegisterRequest{
		Username: "alice2", DisplayName: "Alice B", Email: "ALICE@example.com",
		Password: "secret1", ConfirmPassword: "secret1",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "bob")
	require.NoError(t, f.auth.Logout(ctx, user.ID))

	_, err := f.auth.Login(ctx, &LoginRequest{Username: "bob", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, &LoginRequest{Username: "bob"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter both username and password", verr.Message)

	session, err := f.auth.Login(ctx, &LoginRequest{Username: "BOB", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.True(t, session.User.IsOnline)

	me, err := f.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, me.IsOnline)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "carol")

	require.NoError(t, f.auth.Logout(ctx, user.ID))
	me, err := f.auth.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, me.IsOnline)

	assert.ErrorIs(t, f.auth.Logout(ctx, "missing"), ErrUserNotFound)
}

func TestValidateToken_Expired(t *testing.T) {
	f := newFixture(t)
	expired := NewAuthService(f.userRepo, config.JWTConfig{Secret: testSecret, ExpireHours: -1})

	token, _, err := expired.IssueToken("user-1")
	require.NoError(t, err)

	_, err = f.auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_ClockControlsExpiry(t *testing.T) {
	f := newFixture(t)
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	f.auth.now = func() time.Time { return issued }
	token, expiresAt, err := f.auth.IssueToken("user-1")
	require.NoError(t, err)
	assert.Equal(t, issued.Add(168*time.Hour), expiresAt)

	f.auth.now = func() time.Time { return expiresAt.Add(-time.Minute) }
	_, err = f.auth.ValidateToken(token)
	require.NoError(t, err)

	f.auth.now = func() time.Time { return expiresAt.Add(time.Minute) }
	_, err = f.auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidateToken_Invalid(t *testing.T) {
	f := newFixture(t)

	token, _, err := f.auth.IssueToken("user-1")
	require.NoError(t, err)

	other := NewAuthService(f.userRepo, config.JWTConfig{Secret: "other-secret", ExpireHours: 1})
	foreign, _, err := other.IssueToken("user-1")
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: "user-1"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"garbage":        "not-a-token",
		"tampered":       token[:len(token)-2] + "xx",
		"foreign secret": foreign,
		"alg none":       unsigned,
		"no expiry":      noExpiry,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.auth.ValidateToken(tok)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
