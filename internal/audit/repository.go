package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-shades/internal/bridges/hub"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// defaultSource is recorded when a command does not name its origin.
	defaultSource = "mqtt"
)

// ErrShadeIDRequired is returned when an entry has no shade ID.
var ErrShadeIDRequired = errors.New("audit: shade id is required")

// Entry is one audited command.
type Entry struct {
	ID        string        `json:"id"`
	CommandID string        `json:"command_id"`
	ShadeID   string        `json:"shade_id"`
	Channel   string        `json:"channel"`
	Command   string        `json:"command"`
	Percent   *int          `json:"percent,omitempty"`
	Status    hub.AckStatus `json:"status"`
	ErrorCode string        `json:"error_code,omitempty"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

// EntryFrom builds an unsaved entry from a command and its acknowledgement.
func EntryFrom(msg hub.CommandMessage, ack hub.AckMessage) *Entry {
	e := &Entry{
		CommandID: ack.CommandID,
		ShadeID:   ack.ShadeID,
		Channel:   string(ack.Channel),
		Command:   string(msg.Command),
		Percent:   msg.Percent,
		Status:    ack.Status,
		Source:    msg.Source,
		CreatedAt: ack.Timestamp,
	}
	if ack.Error != nil {
		e.ErrorCode = ack.Error.Code
	}
	return e
}

// Filter controls which entries List returns.
type Filter struct {
	ShadeID string        // optional
	Status  hub.AckStatus // optional
	Source  string        // optional
	Limit   int           // default 50, max 200
	Offset  int
}

// ListResult is a page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores audited commands.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores entries in the shade_command_audit table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordCommand implements hub.CommandAuditor.
func (r *SQLiteRepository) RecordCommand(ctx context.Context, msg hub.CommandMessage, ack hub.AckMessage) error {
	return r.Create(ctx, EntryFrom(msg, ack))
}

// Create inserts e. ID, CreatedAt and Source are filled in when empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.ShadeID == "" {
		return ErrShadeIDRequired
	}
	if e.ID == "" {
		e.ID = "cmd-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Source == "" {
		e.Source = defaultSource
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shade_command_audit
		 (id, command_id, shade_id, channel, command, percent, status, error_code, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CommandID, e.ShadeID, e.Channel, e.Command,
		e.Percent, string(e.Status), nullableString(e.ErrorCode), e.Source,
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting command audit entry: %w", err)
	}
	return nil
}

// nullableString maps "" to NULL for nullable TEXT columns.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// List returns entries matching filter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		conditions []string
		args       []any
	)
	if filter.ShadeID != "" {
		conditions = append(conditions, "shade_id = ?")
		args = append(args, filter.ShadeID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		conditions = append(conditions, "source = ?")
		args = append(args, filter.Source)
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM shade_command_audit " + where //nolint:gosec // WHERE built from parameterised conditions
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting command audit entries: %w", err)
	}

	query := `SELECT id, command_id, shade_id, channel, command, percent, status, error_code, source, created_at
		FROM shade_command_audit ` + where + ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?` //nolint:gosec // see above
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying command audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			percent   sql.NullInt64
			status    string
			errorCode sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.CommandID, &e.ShadeID, &e.Channel, &e.Command,
			&percent, &status, &errorCode, &e.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning command audit entry: %w", err)
		}
		if percent.Valid {
			p := int(percent.Int64)
			e.Percent = &p
		}
		e.Status = hub.AckStatus(status)
		e.ErrorCode = errorCode.String
		if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing command audit timestamp %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating command audit entries: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}
