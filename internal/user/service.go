package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var (
	ErrHashingPasswordFailed = errors.New("hashing password failed")
	ErrInvalidCredentials    = errors.New("invalid email or password")
)

const (
	profileCacheTTL     = 5 * time.Minute
	profileCacheCleanup = 30 * time.Second
)

type UserService interface {
	CreateUser(ctx context.Context, email, password, name string) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	ReadUserByID(ctx context.Context, id string) (*User, error)
	ReadProfile(ctx context.Context, id string) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
}

type userService struct {
	repo     UserRepository
	hasher   PasswordHasher
	profiles *cache.Cache
	logger   *zap.Logger

	dummyHash string
}

func NewUserService(repo UserRepository, hasher PasswordHasher, logger *zap.Logger) UserService {
	s := &userService{
		repo:     repo,
		hasher:   hasher,
		profiles: cache.New(profileCacheTTL, profileCacheCleanup),
		logger:   logger.Named("user"),
	}
	// Compared against when the email is unknown so both failure paths cost one bcrypt.
	hashed, err := hasher.Hash(uuid.NewString())
	if err != nil {
		s.logger.Warn("failed to prepare fallback hash", zap.Error(err))
	}
	s.dummyHash = hashed
	return s
}

/** CREATE */
func (s *userService) CreateUser(ctx context.Context, email, password, name string) (*User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email availability", zap.Error(err))
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	user := NewUser(email, hashed, name)
	if err := s.repo.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrEmailAlreadyExists) {
			s.logger.Error("failed to create user in repository", zap.Error(err))
		}
		return nil, err
	}
	s.logger.Info("user created", zap.String("user_id", user.ID))
	return user, nil
}

// Authenticate returns ErrInvalidCredentials for both an unknown email and a
// wrong password. A hash comparison runs in either case.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.ReadByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	case err != nil:
		s.logger.Error("failed to read user by email", zap.Error(err))
		return nil, err
	}

	err = s.hasher.Compare(user.PasswordHash, password)
	switch {
	case errors.Is(err, ErrPasswordMismatch):
		return nil, ErrInvalidCredentials
	case err != nil:
		s.logger.Error("password comparison failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

/** READ */
func (s *userService) ReadUserByID(ctx context.Context, id string) (*User, error) {
	user, err := s.repo.ReadByID(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("failed to get user by ID", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ReadProfile(ctx context.Context, id string) (*Profile, error) {
	if cached, ok := s.profiles.Get(id); ok {
		profile := cached.(Profile)
		return &profile, nil
	}

	user, err := s.ReadUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile := user.Profile()
	s.profiles.Set(id, profile, cache.DefaultExpiration)
	return &profile, nil
}

func (s *userService) ListProfiles(ctx context.Context) ([]Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	profiles := make([]Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].Profile())
	}
	return profiles, nil
}
