package journal

import "errors"

// ErrNotFound is returned when the journal holds no matching row.
var ErrNotFound = errors.New("journal: not found")
