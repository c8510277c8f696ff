package authentication

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// memoryRepository is a RefreshTokenRepository kept in a map. Transactions
// hold the lock for their whole duration and roll back on error.
type memoryRepository struct {
	mu   sync.Mutex
	rows map[string]RefreshToken

	failWith     error
	expiredCalls atomic.Int32
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[string]RefreshToken)}
}

func (m *memoryRepository) Insert(ctx context.Context, token *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).Insert(ctx, token)
}

func (m *memoryRepository) FindByTokenAndUser(ctx context.Context, token, userID string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).FindByTokenAndUser(ctx, token, userID)
}

func (m *memoryRepository) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).DeleteByID(ctx, id)
}

func (m *memoryRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).DeleteAllForUser(ctx, userID)
}

func (m *memoryRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).DeleteExpired(ctx, now)
}

func (m *memoryRepository) Transaction(ctx context.Context, fn func(repo RefreshTokenRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (*lockedMemory)(m).Transaction(ctx, fn)
}

func (m *memoryRepository) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}

func (m *memoryRepository) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// lockedMemory operates on the rows while the caller holds mu.
type lockedMemory memoryRepository

func (l *lockedMemory) Insert(_ context.Context, token *RefreshToken) error {
	if l.failWith != nil {
		return l.failWith
	}
	for _, row := range l.rows {
		if row.Token == token.Token {
			return ErrDuplicateRefreshToken
		}
	}
	row := *token
	row.CreatedAt = time.Now().UTC()
	l.rows[row.ID] = row
	return nil
}

func (l *lockedMemory) FindByTokenAndUser(_ context.Context, token, userID string) (*RefreshToken, error) {
	if l.failWith != nil {
		return nil, l.failWith
	}
	for _, row := range l.rows {
		if row.Token == token && row.UserID == userID {
			found := row
			return &found, nil
		}
	}
	return nil, ErrRefreshTokenNotFound
}

func (l *lockedMemory) DeleteByID(_ context.Context, id string) error {
	if l.failWith != nil {
		return l.failWith
	}
	if _, ok := l.rows[id]; !ok {
		return ErrRefreshTokenNotFound
	}
	delete(l.rows, id)
	return nil
}

func (l *lockedMemory) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	if l.failWith != nil {
		return 0, l.failWith
	}
	var n int64
	for id, row := range l.rows {
		if row.UserID == userID {
			delete(l.rows, id)
			n++
		}
	}
	return n, nil
}

func (l *lockedMemory) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	l.expiredCalls.Add(1)
	if l.failWith != nil {
		return 0, l.failWith
	}
	var n int64
	for id, row := range l.rows {
		if row.ExpiresAt.Before(now) {
			delete(l.rows, id)
			n++
		}
	}
	return n, nil
}

func (l *lockedMemory) Transaction(ctx context.Context, fn func(repo RefreshTokenRepository) error) error {
	snapshot := make(map[string]RefreshToken, len(l.rows))
	for id, row := range l.rows {
		snapshot[id] = row
	}
	if err := fn(l); err != nil {
		l.rows = snapshot
		return err
	}
	return nil
}
