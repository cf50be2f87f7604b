package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tradehub/internal/config"
	"github.com/tradehub/internal/models"
	"github.com/tradehub/internal/repository"
	"github.com/tradehub/pkg/crypto"
	"github.com/tradehub/pkg/keygen"
)

// DefaultAvatar is assigned to new users until they upload one
const DefaultAvatar = "/placeholder.svg"

const tokenIssuer = "tradehub"

// AuthService handles registration, login and session tokens
type AuthService struct {
	userRepo  *repository.UserRepository
	jwtConfig config.JWTConfig
	now       func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo *repository.UserRepository, jwtConfig config.JWTConfig) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		jwtConfig: jwtConfig,
		now:       time.Now,
	}
}

// RegisterRequest represents the registration request
type RegisterRequest struct {
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is an authenticated user together with its bearer token
type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// JWTClaims represents the JWT claims
type JWTClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Register validates the request, creates the user and signs them in.
// Rules are checked in a fixed order and the first failure is returned.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	displayName := strings.TrimSpace(req.DisplayName)
	email := strings.TrimSpace(req.Email)

	if err := validateRegistration(username, displayName, email, req.Password, req.ConfirmPassword); err != nil {
		return nil, err
	}

	passwordHash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := timestamp(s.now)
	user := &models.User{
		ID:           keygen.NewID(),
		Username:     username,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: passwordHash,
		Avatar:       DefaultAvatar,
		JoinDate:     now,
		IsOnline:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, &ValidationError{Message: "Username is already taken", Err: ErrUsernameTaken}
		case errors.Is(err, repository.ErrEmailExists):
			return nil, &ValidationError{Message: "Email is already registered", Err: ErrEmailTaken}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.newSession(user)
}

func validateRegistration(username, displayName, email, password, confirmPassword string) error {
	switch {
	case utf8.RuneCountInString(username) < 3:
		return invalid("Username must be at least 3 characters long")
	case utf8.RuneCountInString(username) > 50:
		return invalid("Username must be at most 50 characters long")
	case utf8.RuneCountInString(displayName) < 2:
		return invalid("Display name must be at least 2 characters long")
	case utf8.RuneCountInString(displayName) > 100:
		return invalid("Display name must be at most 100 characters long")
	case !strings.Contains(email, "@") || utf8.RuneCountInString(email) > 100:
		return invalid("Please enter a valid email address")
	case utf8.RuneCountInString(password) < 6:
		return invalid("Password must be at least 6 characters long")
	case password != confirmPassword:
		return invalid("Passwords do not match")
	}
	return nil
}

// Login verifies credentials, marks the user online and issues a token.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, invalid("Please enter both username and password")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !crypto.CheckPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.SetOnline(ctx, user.ID, true); err != nil {
		return nil, fmt.Errorf("set online: %w", err)
	}
	user.IsOnline = true

	return s.newSession(user)
}

// Logout marks the user offline. The token stays valid until it expires.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.userRepo.SetOnline(ctx, userID, false)
}

// Me returns the user the token was issued to
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	token, expiresAt, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// IssueToken signs a token for userID valid for the configured lifetime
func (s *AuthService) IssueToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(time.Duration(s.jwtConfig.ExpireHours) * time.Hour)

	claims := &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims.
// Returns ErrTokenExpired or ErrInvalidToken.
func (s *AuthService) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
