package authentication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mehmetcc/boom-backend/internal/user"
	"github.com/mehmetcc/boom-backend/internal/utils"
)

var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidCredentials     = fmt.Errorf("%w: invalid email or password", ErrUnauthorized)
	ErrInvalidRefreshToken    = fmt.Errorf("%w: invalid refresh token", ErrUnauthorized)
	ErrInternal               = errors.New("internal error")
)

// TokenIssuer produces and checks signed token pairs.
type TokenIssuer interface {
	Issue(userID, email string) (*utils.TokenPair, error)
	VerifyAccess(raw string) (*utils.Claims, error)
	VerifyRefresh(raw string) (*utils.Claims, error)
}

type AuthenticationService interface {
	SignUp(ctx context.Context, email, password, name string) (*AuthResponse, error)
	SignIn(ctx context.Context, email, password string) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, userID string) error
}

type authenticationService struct {
	users  user.UserService
	tokens RefreshTokenRepository
	issuer TokenIssuer
	logger *zap.Logger
	now    func() time.Time
}

func NewAuthenticationService(
	users user.UserService,
	tokens RefreshTokenRepository,
	issuer TokenIssuer,
	logger *zap.Logger,
) AuthenticationService {
	return &authenticationService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		logger: logger.Named("authentication"),
		now:    time.Now,
	}
}

func (a *authenticationService) SignUp(ctx context.Context, email, password, name string) (*AuthResponse, error) {
	u, err := a.users.CreateUser(ctx, email, password, name)
	switch {
	case errors.Is(err, user.ErrEmailAlreadyExists):
		return nil, ErrEmailAlreadyRegistered
	case err != nil:
		return nil, internal("create user", err)
	}
	return a.issueFor(ctx, u)
}

func (a *authenticationService) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	u, err := a.users.Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, internal("authenticate", err)
	}
	return a.issueFor(ctx, u)
}

// Refresh consumes a refresh token and returns a new pair. Every validation
// failure yields ErrInvalidRefreshToken so callers cannot tell them apart.
func (a *authenticationService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := a.issuer.VerifyRefresh(refreshToken)
	if err != nil {
		a.logger.Debug("refresh token rejected", zap.Error(err))
		return nil, ErrInvalidRefreshToken
	}

	stored, err := a.tokens.FindByTokenAndUser(ctx, refreshToken, claims.Subject)
	switch {
	case errors.Is(err, ErrRefreshTokenNotFound):
		a.logger.Debug("refresh token not on record", zap.String("user_id", claims.Subject))
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, internal("find refresh token", err)
	}

	if !stored.ExpiresAt.After(a.now()) {
		if err := a.tokens.DeleteByID(ctx, stored.ID); err != nil && !errors.Is(err, ErrRefreshTokenNotFound) {
			a.logger.Warn("failed to delete expired refresh token", zap.String("token_id", stored.ID), zap.Error(err))
		}
		return nil, ErrInvalidRefreshToken
	}

	u, err := a.users.ReadUserByID(ctx, claims.Subject)
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, internal("read user", err)
	}

	pair, err := a.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, internal("issue tokens", err)
	}

	err = a.tokens.Transaction(ctx, func(tx RefreshTokenRepository) error {
		if err := tx.DeleteByID(ctx, stored.ID); err != nil {
			return err
		}
		return tx.Insert(ctx, NewRefreshToken(pair.RefreshToken, u.ID, pair.RefreshExpiresAt))
	})
	switch {
	case errors.Is(err, ErrRefreshTokenNotFound):
		a.logger.Info("refresh token already consumed", zap.String("user_id", u.ID))
		return nil, ErrInvalidRefreshToken
	case err != nil:
		return nil, internal("rotate refresh token", err)
	}

	return newAuthResponse(u, pair), nil
}

func (a *authenticationService) Logout(ctx context.Context, userID string) error {
	deleted, err := a.tokens.DeleteAllForUser(ctx, userID)
	if err != nil {
		return internal("delete refresh tokens", err)
	}
	a.logger.Info("user logged out", zap.String("user_id", userID), zap.Int64("revoked", deleted))
	return nil
}

func (a *authenticationService) issueFor(ctx context.Context, u *user.User) (*AuthResponse, error) {
	pair, err := a.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return nil, internal("issue tokens", err)
	}
	if err := a.tokens.Insert(ctx, NewRefreshToken(pair.RefreshToken, u.ID, pair.RefreshExpiresAt)); err != nil {
		return nil, internal("store refresh token", err)
	}
	return newAuthResponse(u, pair), nil
}

func newAuthResponse(u *user.User, pair *utils.TokenPair) *AuthResponse {
	return &AuthResponse{
		User:         u.Profile(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}

func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
