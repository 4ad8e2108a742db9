// Package storage keeps the CLI's session between invocations: the API's
// session cookies and a few preferences, in a local SQLite file.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a preference is not set.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db      *sql.DB
	version uint
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, version: version}, nil
}

// SchemaVersion is the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.version
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// StoredCookie is a cookie together with the origin (scheme://host) that set it.
type StoredCookie struct {
	Origin string
	Cookie *http.Cookie
}

// SaveCookies upserts cookies for origin. Cookies that are already expired or
// carry a negative MaxAge are deleted instead.
func (r *SQLiteRepository) SaveCookies(ctx context.Context, origin string, cookies []*http.Cookie) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?`,
				origin, c.Name, path); err != nil {
				return fmt.Errorf("delete cookie %s: %w", c.Name, err)
			}
			continue
		}

		var expires sql.NullInt64
		switch {
		case c.MaxAge > 0:
			expires = sql.NullInt64{Int64: now.Add(time.Duration(c.MaxAge) * time.Second).Unix(), Valid: true}
		case !c.Expires.IsZero():
			expires = sql.NullInt64{Int64: c.Expires.Unix(), Valid: true}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cookies (origin, name, path, value, domain, expires_at, secure, http_only, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (origin, name, path) DO UPDATE SET
				value = excluded.value,
				domain = excluded.domain,
				expires_at = excluded.expires_at,
				secure = excluded.secure,
				http_only = excluded.http_only,
				updated_at = excluded.updated_at`,
			origin, c.Name, path, c.Value, c.Domain, expires, c.Secure, c.HttpOnly, now.Unix()); err != nil {
			return fmt.Errorf("save cookie %s: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cookies: %w", err)
	}
	return nil
}

// LoadCookies returns every stored cookie that has not expired.
func (r *SQLiteRepository) LoadCookies(ctx context.Context) ([]StoredCookie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT origin, name, path, value, domain, expires_at, secure, http_only
		FROM cookies
		WHERE expires_at IS NULL OR expires_at > ?
		ORDER BY origin, name`, time.Now().Unix())
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	var out []StoredCookie
	for rows.Next() {
		var (
			sc       StoredCookie
			c        http.Cookie
			expires  sql.NullInt64
			secure   bool
			httpOnly bool
		)
		if err := rows.Scan(&sc.Origin, &c.Name, &c.Path, &c.Value, &c.Domain, &expires, &secure, &httpOnly); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		if expires.Valid {
			c.Expires = time.Unix(expires.Int64, 0)
		}
		c.Secure = secure
		c.HttpOnly = httpOnly
		sc.Cookie = &c
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cookies: %w", err)
	}
	return out, nil
}

// DeleteCookies removes every cookie stored for origin.
func (r *SQLiteRepository) DeleteCookies(ctx context.Context, origin string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cookies WHERE origin = ?`, origin); err != nil {
		return fmt.Errorf("delete cookies: %w", err)
	}
	return nil
}

// SetPreference stores a small key/value setting.
func (r *SQLiteRepository) SetPreference(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix()); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// Preference reads a setting, returning ErrNotFound when absent.
func (r *SQLiteRepository) Preference(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

// DeletePreference removes a setting. Missing keys are not an error.
func (r *SQLiteRepository) DeletePreference(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM preferences WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}
