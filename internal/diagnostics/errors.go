package diagnostics

import "errors"

// ErrKindRequired is returned when an entry has no kind.
var ErrKindRequired = errors.New("diagnostics: kind is required")
