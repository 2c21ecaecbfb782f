package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for fatal generation failures. These signal a corrupt or
// incomplete motif library, never a recoverable runtime condition.
var (
	ErrUnknownMood        = errors.New("unknown mood")
	ErrUnknownTempo       = errors.New("unknown tempo")
	ErrUnknownTemplate    = errors.New("unknown section template")
	ErrEmptyChordPool     = errors.New("no chord progressions available")
	ErrNoMotifCandidates  = errors.New("no motif candidates for required constraint")
	ErrSectionSumMismatch = errors.New("section measures do not sum to requested length")
	ErrInvalidOptions     = errors.New("invalid composition options")
)

// LibraryError represents a motif-library configuration defect discovered
// during generation. The caller must treat it as total failure; there is
// no partial output mode.
type LibraryError struct {
	Table      string // "rhythm", "melody", "melodyRhythm", "drum", "bass", "transition", "progression"
	Constraint string // human-readable description of the unmet constraint
	Cause      error
}

func (e *LibraryError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("motif library defect in %s table: %s", e.Table, e.Constraint)
	}
	return fmt.Sprintf("motif library defect in %s table", e.Table)
}

func (e *LibraryError) Unwrap() error {
	return e.Cause
}

// NewLibraryError creates a LibraryError wrapping a sentinel cause.
func NewLibraryError(table, constraint string, cause error) *LibraryError {
	return &LibraryError{Table: table, Constraint: constraint, Cause: cause}
}
