package cache

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS translations (
	key    TEXT PRIMARY KEY,
	value  TEXT NOT NULL,
	stored INTEGER NOT NULL
)`

// SQLiteConfig holds configuration for the SQLite cache.
type SQLiteConfig struct {
	Path string        // Database file, created if missing
	TTL  time.Duration // 0 = no expiration
}

// SQLiteCache persists translations in a local database file, so repeated
// CLI runs over the same documents reuse earlier results.
type SQLiteCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteCache opens (or creates) the database at cfg.Path.
func NewSQLiteCache(cfg SQLiteConfig) (*SQLiteCache, error) {
	path := cfg.Path
	if path == "" {
		path = "hfit-cache.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time; the driver serializes anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, err
	}
	ttl := cfg.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &SQLiteCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *SQLiteCache) cutoff() int64 {
	if c.ttl == 0 {
		return 0
	}
	return c.now().Add(-c.ttl).UnixNano()
}

// Get returns the value for key unless it is missing or expired.
func (c *SQLiteCache) Get(key string) (string, bool) {
	var value string
	err := c.db.QueryRow(
		`SELECT value FROM translations WHERE key = ? AND stored >= ?`,
		key, c.cutoff(),
	).Scan(&value)
	if err != nil {
		return "", false
	}
	return value, true
}

// Set stores or replaces a value.
func (c *SQLiteCache) Set(key string, value string) error {
	_, err := c.db.Exec(
		`INSERT INTO translations (key, value, stored) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, stored = excluded.stored`,
		key, value, c.now().UnixNano(),
	)
	return err
}

// Entries returns all live entries.
func (c *SQLiteCache) Entries() (map[string]string, error) {
	rows, err := c.db.Query(`SELECT key, value FROM translations WHERE stored >= ?`, c.cutoff())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Prune deletes expired rows and returns how many were removed.
func (c *SQLiteCache) Prune() (int64, error) {
	if c.ttl == 0 {
		return 0, nil
	}
	res, err := c.db.Exec(`DELETE FROM translations WHERE stored < ?`, c.cutoff())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var (
	_ TranslationCache = (*SQLiteCache)(nil)
	_ Lister           = (*SQLiteCache)(nil)
)
