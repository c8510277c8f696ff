package authentication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mehmetcc/boom-backend/internal/utils"
)

var (
	ErrRefreshTokenNotFound  = errors.New("refresh token not found")
	ErrDuplicateRefreshToken = errors.New("refresh token already stored")
	ErrUnresponsiveDatabase  = errors.New("error occurred during access to refresh_tokens table")
)

// RefreshTokenRepository persists refresh sessions. Transaction runs fn against
// a repository bound to a single database transaction.
type RefreshTokenRepository interface {
	Insert(ctx context.Context, token *RefreshToken) error
	FindByTokenAndUser(ctx context.Context, token, userID string) (*RefreshToken, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Transaction(ctx context.Context, fn func(repo RefreshTokenRepository) error) error
}

type refreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

func (r *refreshTokenRepository) Insert(ctx context.Context, token *RefreshToken) error {
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Create(token).
		Error
	if utils.IsUniqueViolation(err) {
		return ErrDuplicateRefreshToken
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return nil
}

func (r *refreshTokenRepository) FindByTokenAndUser(ctx context.Context, token, userID string) (*RefreshToken, error) {
	var record RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND user_id = ?", token, userID).
		First(&record).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, err)
	}
	return &record, nil
}

// DeleteByID reports ErrRefreshTokenNotFound when no row was removed, which
// is how a concurrent consumer of the same token loses the race.
func (r *refreshTokenRepository) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&RefreshToken{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now.UTC()).
		Delete(&RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnresponsiveDatabase, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *refreshTokenRepository) Transaction(ctx context.Context, fn func(repo RefreshTokenRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&refreshTokenRepository{db: tx})
	})
}
