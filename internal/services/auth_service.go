package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bahikhata/internal/core"
	"bahikhata/internal/log"
	"bahikhata/internal/storage"
)

// AuthService handles registration and credential checks.
type AuthService struct {
	storage *storage.SQLiteRepository
}

func NewAuthService(storage *storage.SQLiteRepository) *AuthService {
	return &AuthService{storage: storage}
}

// Register creates a new user with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (core.User, error) {
	user := core.User{
		ID:        uuid.New().String(),
		Username:  strings.TrimSpace(username),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)

	if err := s.storage.CreateUser(ctx, user); err != nil {
		return core.User{}, err
	}

	slog.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldEmail, user.Email)
	return user, nil
}

// Login verifies credentials and returns the matching user. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, error) {
	user, err := s.storage.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, core.ErrInvalidCredentials
		}
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return core.User{}, core.ErrInvalidCredentials
	}
	return user, nil
}
