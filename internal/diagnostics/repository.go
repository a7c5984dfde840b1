package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Entry is a persisted shade diagnostic.
type Entry struct {
	ID           string               `json:"id"`
	Kind         shade.DiagnosticKind `json:"kind"`
	ShadeID      string               `json:"shade_id,omitempty"`
	Type         int                  `json:"type"`
	Capabilities int                  `json:"capabilities"`
	Property     string               `json:"property,omitempty"`
	Observed     *bool                `json:"observed,omitempty"`
	Message      string               `json:"message"`
	CreatedAt    time.Time            `json:"created_at"`
}

// EntryFrom converts a diagnostic to an unsaved entry.
func EntryFrom(d shade.Diagnostic) *Entry {
	e := &Entry{
		Kind:         d.Kind,
		ShadeID:      d.ShadeID,
		Type:         d.Type,
		Capabilities: d.Capabilities,
		Message:      d.Error(),
	}
	if d.Kind == shade.DiagnosticPropertyMismatch {
		observed := d.Observed
		e.Property = d.Property
		e.Observed = &observed
	}
	return e
}

// Filter controls which entries List returns.
type Filter struct {
	Kind    shade.DiagnosticKind // optional
	ShadeID string               // optional
	Type    int                  // optional, zero matches all
	Limit   int                  // default 50, max 200
	Offset  int
}

// ListResult is a page of entries.
type ListResult struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
	Limit   int     `json:"limit"`
	Offset  int     `json:"offset"`
}

// Repository stores diagnostics.
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter) (*ListResult, error)
}

// SQLiteRepository stores diagnostics in the shade_diagnostics table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an open database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts e. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Create(ctx context.Context, e *Entry) error {
	if e.Kind == "" {
		return ErrKindRequired
	}
	if e.ID == "" {
		e.ID = "diag-" + uuid.NewString()[:8]
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var observed any
	if e.Observed != nil {
		observed = boolToInt(*e.Observed)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shade_diagnostics (id, kind, shade_id, type, capabilities, property, observed, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), nullableString(e.ShadeID), e.Type, e.Capabilities,
		nullableString(e.Property), observed, e.Message,
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting shade diagnostic: %w", err)
	}
	return nil
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

	var conditions []string
	var args []any
	if filter.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.ShadeID != "" {
		conditions = append(conditions, "shade_id = ?")
		args = append(args, filter.ShadeID)
	}
	if filter.Type != 0 {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM shade_diagnostics %s", where) //nolint:gosec // WHERE built from parameterised conditions
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting shade diagnostics: %w", err)
	}

	query := fmt.Sprintf( //nolint:gosec // WHERE built from parameterised conditions
		`SELECT id, kind, shade_id, type, capabilities, property, observed, message, created_at
		 FROM shade_diagnostics %s ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		where,
	)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying shade diagnostics: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                 Entry
			kind, createdAt   string
			shadeID, property sql.NullString
			observed          sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &kind, &shadeID, &e.Type, &e.Capabilities,
			&property, &observed, &e.Message, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning shade diagnostic: %w", err)
		}
		e.Kind = shade.DiagnosticKind(kind)
		e.ShadeID = shadeID.String
		e.Property = property.String
		if observed.Valid {
			v := observed.Int64 != 0
			e.Observed = &v
		}
		t, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing diagnostic timestamp %q: %w", createdAt, err)
		}
		e.CreatedAt = t
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shade diagnostics: %w", err)
	}

	return &ListResult{
		Entries: entries,
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
