package authentication

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mehmetcc/boom-backend/internal/testdb"
	"github.com/mehmetcc/boom-backend/internal/user"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testdb.Open(t, &user.User{}, &RefreshToken{})
}

func seedUser(t *testing.T, db *gorm.DB, email string) *user.User {
	t.Helper()
	u := user.NewUser(email, "hash", "Test")
	require.NoError(t, user.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func TestRefreshTokenRepository_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")
	other := seedUser(t, db, "b@x.io")

	token := NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, token))

	found, err := repo.FindByTokenAndUser(ctx, "tok-1", u.ID)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)
	assert.WithinDuration(t, token.ExpiresAt, found.ExpiresAt, time.Millisecond)

	_, err = repo.FindByTokenAndUser(ctx, "tok-1", other.ID)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound, "token must belong to the claimed user")

	_, err = repo.FindByTokenAndUser(ctx, "tok-2", u.ID)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshTokenRepository_DuplicateToken(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")

	require.NoError(t, repo.Insert(ctx, NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour))))
	err := repo.Insert(ctx, NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrDuplicateRefreshToken)
}

func TestRefreshTokenRepository_DeleteByID(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")

	token := NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, token))

	require.NoError(t, repo.DeleteByID(ctx, token.ID))
	assert.ErrorIs(t, repo.DeleteByID(ctx, token.ID), ErrRefreshTokenNotFound)
}

func TestRefreshTokenRepository_DeleteAllForUser(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")
	other := seedUser(t, db, "b@x.io")

	for _, tok := range []string{"a-1", "a-2", "a-3"} {
		require.NoError(t, repo.Insert(ctx, NewRefreshToken(tok, u.ID, time.Now().Add(time.Hour))))
	}
	require.NoError(t, repo.Insert(ctx, NewRefreshToken("b-1", other.ID, time.Now().Add(time.Hour))))

	n, err := repo.DeleteAllForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	n, err = repo.DeleteAllForUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = repo.FindByTokenAndUser(ctx, "b-1", other.ID)
	assert.NoError(t, err)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")
	now := time.Now()

	require.NoError(t, repo.Insert(ctx, NewRefreshToken("old-1", u.ID, now.Add(-48*time.Hour))))
	require.NoError(t, repo.Insert(ctx, NewRefreshToken("old-2", u.ID, now.Add(-time.Hour))))
	require.NoError(t, repo.Insert(ctx, NewRefreshToken("live", u.ID, now.Add(time.Hour))))

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = repo.FindByTokenAndUser(ctx, "live", u.ID)
	assert.NoError(t, err)
}

func TestRefreshTokenRepository_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")

	token := NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, token))

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx RefreshTokenRepository) error {
		require.NoError(t, tx.DeleteByID(ctx, token.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.FindByTokenAndUser(ctx, "tok-1", u.ID)
	assert.NoError(t, err, "delete must be rolled back")
}

func TestRefreshTokenRepository_CascadeOnUserDelete(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewRefreshTokenRepository(db)
	u := seedUser(t, db, "a@x.io")

	require.NoError(t, repo.Insert(ctx, NewRefreshToken("tok-1", u.ID, time.Now().Add(time.Hour))))
	require.NoError(t, user.NewUserRepository(db).Delete(ctx, u.ID))

	var count int64
	require.NoError(t, db.Model(&RefreshToken{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRefreshTokenRepository_UnknownUserRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository(openTestDB(t))

	err := repo.Insert(ctx, NewRefreshToken("tok-1", "00000000-0000-0000-0000-000000000000", time.Now().Add(time.Hour)))
	assert.ErrorIs(t, err, ErrUnresponsiveDatabase)
}
