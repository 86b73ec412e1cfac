package service

import (
	"context"
	"errors"
	"strings"

	dom "github.com/haflows/tasknotify/internal/domain"
	"github.com/haflows/tasknotify/internal/repo"
	"github.com/haflows/tasknotify/internal/utils"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")
var ErrEmailTaken = errors.New("email already registered")

// UserService handles account auth and settings.
type UserService struct {
	users    repo.UserRepo
	profiles repo.ProfileRepo
}

// NewUserService returns a new UserService.
func NewUserService(users repo.UserRepo, profiles repo.ProfileRepo) *UserService {
	return &UserService{users: users, profiles: profiles}
}

// ValidateCredentials checks email and password; returns user if valid.
func (s *UserService) ValidateCredentials(ctx context.Context, email, password string) (dom.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.User{}, ErrInvalidCredentials
		}
		return dom.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register creates a new user with hashed password.
func (s *UserService) Register(ctx context.Context, email, name, password string) (dom.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return dom.User{}, ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dom.User{}, err
	}
	u, err := s.users.Create(ctx, email, strings.TrimSpace(name), string(hash))
	if err != nil {
		if utils.IsPGUniqueViolation(err) {
			return dom.User{}, ErrEmailTaken
		}
		return dom.User{}, err
	}
	return u, nil
}

// GetProfile returns the user's settings profile. A user without one yet
// reads as an empty profile, not an error.
func (s *UserService) GetProfile(ctx context.Context, userID string) (dom.Profile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dom.Profile{ID: userID}, nil
		}
		return dom.Profile{}, err
	}
	return p, nil
}

// SaveProfile upserts the user's LINE linkage.
func (s *UserService) SaveProfile(ctx context.Context, userID, lineUserID string) (dom.Profile, error) {
	return s.profiles.Upsert(ctx, userID, lineUserID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
