package diagnostics

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

const defaultPersistTimeout = 2 * time.Second

// Logger is the logging interface used by Recorder.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type key struct {
	kind         shade.DiagnosticKind
	shadeID      string
	typ          int
	capabilities int
	property     string
	observed     bool
}

func keyOf(d shade.Diagnostic) key {
	return key{
		kind:         d.Kind,
		shadeID:      d.ShadeID,
		typ:          d.Type,
		capabilities: d.Capabilities,
		property:     d.Property,
		observed:     d.Observed,
	}
}

// Recorder is a shade.DiagnosticSink that logs and persists each distinct
// diagnostic once. Repeats are counted but not logged again.
//
// Safe for concurrent use.
type Recorder struct {
	repo    Repository
	logger  Logger
	timeout time.Duration

	mu   sync.Mutex
	seen map[key]int
}

// NewRecorder creates a recorder. repo may be nil to log only.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{
		repo:    repo,
		logger:  logger,
		timeout: defaultPersistTimeout,
		seen:    make(map[key]int),
	}
}

// Report implements shade.DiagnosticSink.
func (r *Recorder) Report(d shade.Diagnostic) {
	k := keyOf(d)

	r.mu.Lock()
	r.seen[k]++
	first := r.seen[k] == 1
	r.mu.Unlock()

	if !first {
		return
	}

	if r.logger != nil {
		shade.LogSink{Logger: r.logger}.Report(d)
	}

	if r.repo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.repo.Create(ctx, EntryFrom(d)); err != nil && r.logger != nil {
		r.logger.Error("persisting shade diagnostic failed",
			"kind", string(d.Kind),
			"shade_id", d.ShadeID,
			"error", err,
		)
	}
}

// Occurrences returns how many times d has been reported.
func (r *Recorder) Occurrences(d shade.Diagnostic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seen[keyOf(d)]
}

// Distinct returns the number of distinct diagnostics seen.
func (r *Recorder) Distinct() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
