package buffer

import "github.com/starford/notetidy/internal/apperr"

// ErrOutOfRange is returned when an operation addresses a position outside the buffer.
var ErrOutOfRange = apperr.ErrOutOfRange
