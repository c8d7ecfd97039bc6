package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLockKey — ключ advisory lock лидера планировщика.
const DefaultLockKey int64 = 424242

// Locker — выбор лидера среди экземпляров планировщика.
type Locker interface {
	// TryAcquire возвращает true, если текущий экземпляр — лидер.
	TryAcquire(ctx context.Context) (bool, error)

	// Release отдаёт лидерство.
	Release(ctx context.Context)
}

// PGLeader — лидерство через pg_try_advisory_lock.
//
// Advisory lock живёт в сессии, поэтому лидер держит отдельное
// соединение из пула, пока не вызовет Release.
type PGLeader struct {
	pool *pgxpool.Pool
	key  int64

	mu   sync.Mutex
	conn *pgxpool.Conn
}

// NewPGLeader создаёт PGLeader. key=0 заменяется на DefaultLockKey.
func NewPGLeader(pool *pgxpool.Pool, key int64) *PGLeader {
	if key == 0 {
		key = DefaultLockKey
	}
	return &PGLeader{pool: pool, key: key}
}

// TryAcquire пытается стать лидером (или подтверждает лидерство).
func (l *PGLeader) TryAcquire(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn != nil {
		if err := l.conn.Ping(ctx); err == nil {
			return true, nil
		}
		// Соединение потеряно вместе с lock.
		l.conn.Release()
		l.conn = nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "select pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}

	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release снимает lock и возвращает соединение в пул.
func (l *PGLeader) Release(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.conn == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, "select pg_advisory_unlock($1)", l.key)
	l.conn.Release()
	l.conn = nil
}
