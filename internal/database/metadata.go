package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const keyLastSave = "last_save"

// GetMetadata retrieves a metadata value by key.
// Returns ErrNotFound if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { recordQuery("get_metadata", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { recordQuery("set_metadata", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// GetLastSave returns when Save last committed. Returns zero time if never.
func (d *Database) GetLastSave(ctx context.Context) (time.Time, error) {
	value, err := d.GetMetadata(ctx, keyLastSave)
	if errors.Is(err, ErrNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
