package authentication

import (
	"time"

	"github.com/google/uuid"

	"github.com/mehmetcc/boom-backend/internal/user"
)

// RefreshToken is one live refresh session. Rows are inserted and deleted, never updated.
type RefreshToken struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	Token     string    `gorm:"uniqueIndex;not null"`
	UserID    string    `gorm:"type:uuid;index;not null"`
	User      user.User `gorm:"constraint:OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func NewRefreshToken(token, userID string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
	}
}

// AuthResponse is returned by every successful sign-up, sign-in and refresh.
type AuthResponse struct {
	User         user.Profile `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}
