package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// ErrShadeIDRequired is returned when a shade id is empty.
var ErrShadeIDRequired = errors.New("history: shade id is required")

// SQLiteRepository implements Repository on the shade_state_history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordStateChange inserts a history row. An empty source defaults to SourceFeedback.
func (r *SQLiteRepository) RecordStateChange(ctx context.Context, shadeID string, reading shade.Reading, native shade.NativeReading, source string) error {
	if shadeID == "" {
		return ErrShadeIDRequired
	}
	if source == "" {
		source = SourceFeedback
	}

	var percent, nativeValue any
	if p, ok := reading.Position.Percent(); ok {
		percent = p
	}
	if native.Present {
		nativeValue = native.Value
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shade_state_history (shade_id, channel, percent, native, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		shadeID, string(reading.Channel), percent, nativeValue, source,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting shade history: %w", err)
	}
	return nil
}

// GetHistory returns up to limit entries (default 50, max 200) for shadeID,
// newest first.
func (r *SQLiteRepository) GetHistory(ctx context.Context, shadeID string, limit int) ([]Entry, error) {
	if shadeID == "" {
		return nil, ErrShadeIDRequired
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shade_id, channel, percent, native, source, created_at
		 FROM shade_state_history
		 WHERE shade_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		shadeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying shade history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e               Entry
			channel         string
			percent, native sql.NullInt64
			createdAt       string
		)
		if err := rows.Scan(&e.ID, &e.ShadeID, &channel, &percent, &native, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning shade history: %w", err)
		}
		e.Channel = shade.Channel(channel)
		e.Percent = intPtr(percent)
		e.Native = intPtr(native)

		ts, err := parseTimestamp(createdAt)
		if err != nil {
			return nil, err
		}
		e.CreatedAt = ts
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shade history: %w", err)
	}
	return entries, nil
}

// PruneHistory deletes entries older than olderThan and returns the count removed.
func (r *SQLiteRepository) PruneHistory(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("history: olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx, "DELETE FROM shade_state_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting shade history: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing created_at %q: %w", value, err)
	}
	return ts, nil
}
