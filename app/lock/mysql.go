package lock

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// MySQLStore is a Store backed by the lock_leases table:
//
//	CREATE TABLE lock_leases (
//	    lock_key     VARCHAR(191) NOT NULL PRIMARY KEY,
//	    holder_token VARCHAR(64)  NOT NULL,
//	    expires_at   DATETIME(3)  NOT NULL
//	);
//
// Expiry is judged by the server clock, and every conditional operation is a
// single statement so the server applies it atomically. The DSN must not set
// clientFoundRows, otherwise SetNX cannot tell a takeover from a no-op.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore constructs a MySQL-backed lease store.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

// SetNX inserts the lease, or takes over a row whose lease already expired.
// MySQL reports 1 affected row for an insert, 2 for a changed duplicate row
// and 0 when the live duplicate was left alone.
func (s *MySQLStore) SetNX(ctx context.Context, key string, value string, ttl time.Duration) (bool, error) {
	const query = `
		INSERT INTO lock_leases (lock_key, holder_token, expires_at)
		VALUES (?, ?, NOW(3) + INTERVAL ? MICROSECOND)
		ON DUPLICATE KEY UPDATE
			holder_token = IF(expires_at <= NOW(3), VALUES(holder_token), holder_token),
			expires_at = IF(expires_at <= NOW(3), VALUES(expires_at), expires_at)
	`
	res, err := s.db.ExecContext(ctx, query, key, value, ttl.Microseconds())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1 || n == 2, nil
}

// Get returns the holder token of a live lease.
func (s *MySQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	const query = `
		SELECT holder_token
		FROM lock_leases
		WHERE lock_key = ? AND expires_at > NOW(3)
	`
	var token string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// CompareAndDelete deletes a live lease held by expected.
func (s *MySQLStore) CompareAndDelete(ctx context.Context, key string, expected string) (bool, error) {
	const query = `
		DELETE FROM lock_leases
		WHERE lock_key = ? AND holder_token = ? AND expires_at > NOW(3)
	`
	return s.execAffected(ctx, query, key, expected)
}

// CompareAndExpire pushes the expiry of a live lease held by expected.
func (s *MySQLStore) CompareAndExpire(ctx context.Context, key string, expected string, ttl time.Duration) (bool, error) {
	const query = `
		UPDATE lock_leases
		SET expires_at = NOW(3) + INTERVAL ? MICROSECOND
		WHERE lock_key = ? AND holder_token = ? AND expires_at > NOW(3)
	`
	return s.execAffected(ctx, query, ttl.Microseconds(), key, expected)
}

// Expire pushes the expiry of a live lease regardless of holder.
func (s *MySQLStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	const query = `
		UPDATE lock_leases
		SET expires_at = NOW(3) + INTERVAL ? MICROSECOND
		WHERE lock_key = ? AND expires_at > NOW(3)
	`
	return s.execAffected(ctx, query, ttl.Microseconds(), key)
}

// PurgeExpired deletes rows whose lease has run out and returns how many
// were removed.
func (s *MySQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	const query = `
		DELETE FROM lock_leases
		WHERE expires_at <= NOW(3)
	`
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *MySQLStore) execAffected(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
