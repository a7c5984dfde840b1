package history

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-shades/internal/shade"
)

// History source values.
const (
	SourceFeedback = "feedback"
	SourceRefresh  = "refresh"
)

// Entry is one recorded channel reading.
//
// Percent is nil when the reading was undefined. Native is nil when the device
// did not report the axis.
type Entry struct {
	ID        int64         `json:"id"`
	ShadeID   string        `json:"shade_id"`
	Channel   shade.Channel `json:"channel"`
	Percent   *int          `json:"percent"`
	Native    *int          `json:"native,omitempty"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}

// Repository stores and retrieves shade position history.
//
// Implementations must be safe for concurrent use and store UTC timestamps.
type Repository interface {
	// RecordStateChange stores a translated reading and the native value it came from.
	RecordStateChange(ctx context.Context, shadeID string, reading shade.Reading, native shade.NativeReading, source string) error

	// GetHistory returns recent entries for a shade, newest first.
	GetHistory(ctx context.Context, shadeID string, limit int) ([]Entry, error)
}
