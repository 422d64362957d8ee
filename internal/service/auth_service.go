package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"infocollect/internal/repository"
)

// Admin account setting keys
const (
	keyUserUsername     = "user.username"
	keyUserEmail        = "user.email"
	keyUserPasswordHash = "user.password_hash"
	keyUserJWTSecret    = "user.jwt_secret"
)

const tokenLifetime = 7 * 24 * time.Hour

// Auth errors
var (
	ErrUserExists       = errors.New("admin account already exists")
	ErrUserNotFound     = errors.New("admin account not found")
	ErrInvalidPassword  = errors.New("invalid credentials")
	ErrInvalidToken     = errors.New("invalid token")
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// User is the single admin account.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthResponse is returned after a successful login or registration.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// AuthService manages the single admin account and its session tokens.
// The account and its JWT secret live in the settings table, so a fresh
// database starts with no account and the first registration claims it.
type AuthService interface {
	CheckUserExists(ctx context.Context) (bool, error)
	// Register creates the admin account. Fails once one exists.
	Register(ctx context.Context, username, email, password string) (*AuthResponse, error)
	Login(ctx context.Context, username, password string) (*AuthResponse, error)
	GetCurrentUser(ctx context.Context) (*User, error)
	ValidateToken(token string) (bool, error)
}

type authService struct {
	repo repository.SettingsRepository
}

func NewAuthService(repo repository.SettingsRepository) AuthService {
	return &authService{repo: repo}
}

func (s *authService) CheckUserExists(ctx context.Context) (bool, error) {
	setting, err := s.repo.Get(ctx, keyUserUsername)
	if err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return setting != nil && setting.Value != "", nil
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	switch {
	case username == "":
		return nil, ErrUsernameRequired
	case email == "":
		return nil, ErrEmailRequired
	case password == "":
		return nil, ErrPasswordRequired
	case len(password) < 8:
		return nil, ErrPasswordTooShort
	}

	exists, err := s.CheckUserExists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	secretHex := hex.EncodeToString(secret)

	for _, kv := range []struct{ key, value string }{
		{keyUserUsername, username},
		{keyUserEmail, email},
		{keyUserPasswordHash, string(hash)},
		{keyUserJWTSecret, secretHex},
	} {
		if err := s.repo.Set(ctx, kv.key, kv.value); err != nil {
			return nil, fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	token, err := s.generateToken(username, secretHex)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &User{Username: username, Email: email},
	}, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	username = strings.TrimSpace(username)

	if username == "" {
		return nil, ErrUsernameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	storedUsername, err := s.getValue(ctx, keyUserUsername)
	if err != nil {
		return nil, err
	}
	if storedUsername == "" {
		return nil, ErrUserNotFound
	}
	// Same error for wrong username and wrong password
	if storedUsername != username {
		return nil, ErrInvalidPassword
	}

	storedHash, err := s.getValue(ctx, keyUserPasswordHash)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)); err != nil {
		return nil, ErrInvalidPassword
	}

	email, _ := s.getValue(ctx, keyUserEmail)
	secretHex, err := s.getValue(ctx, keyUserJWTSecret)
	if err != nil {
		return nil, err
	}

	token, err := s.generateToken(username, secretHex)
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Token: token,
		User:  &User{Username: username, Email: email},
	}, nil
}

func (s *authService) GetCurrentUser(ctx context.Context) (*User, error) {
	username, err := s.getValue(ctx, keyUserUsername)
	if err != nil {
		return nil, err
	}
	if username == "" {
		return nil, ErrUserNotFound
	}

	email, _ := s.getValue(ctx, keyUserEmail)
	return &User{Username: username, Email: email}, nil
}

func (s *authService) ValidateToken(tokenString string) (bool, error) {
	secretHex, err := s.getValue(context.Background(), keyUserJWTSecret)
	if err != nil || secretHex == "" {
		return false, ErrInvalidToken
	}

	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return false, ErrInvalidToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return false, ErrInvalidToken
	}

	return true, nil
}

func (s *authService) generateToken(username, secretHex string) (string, error) {
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return "", fmt.Errorf("decode jwt secret: %w", err)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": username,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

func (s *authService) getValue(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if setting == nil {
		return "", nil
	}
	return setting.Value, nil
}
