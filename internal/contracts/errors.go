package contracts

import (
	"fmt"
	"time"
)

// ConfigError is fatal at load time: a malformed or missing registry or
// mapping entry aborts before any fetch or score happens.
type ConfigError struct {
	File   string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s (%s): %s", e.File, e.Field, e.Reason)
	}
	return fmt.Sprintf("config error in %s: %s", e.File, e.Reason)
}

// SourceUnavailableError is non-fatal: the source is marked degraded and
// the run continues with reduced coverage.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// NoSnapshotError is fatal for the requesting operation: no usable
// snapshot exists at or before the requested date.
type NoSnapshotError struct {
	Date time.Time
}

func (e *NoSnapshotError) Error() string {
	return fmt.Sprintf("no snapshot at or before %s", e.Date.Format("2006-01-02"))
}

// AmbiguousEntityError is soft: a denylisted term matched without its
// required context keywords. The entity is excluded and flagged; the run
// never aborts.
type AmbiguousEntityError struct {
	RawName string
	Term    string
}

func (e *AmbiguousEntityError) Error() string {
	return fmt.Sprintf("ambiguous mention %q: denylisted term %q without required context", e.RawName, e.Term)
}

// ValidationInsufficientDataError is soft: coverage was too low to assert
// validated or unvalidated. The entity is retained and tagged.
type ValidationInsufficientDataError struct {
	EntityID string
	Coverage float64
}

func (e *ValidationInsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data to validate %s: coverage %.2f", e.EntityID, e.Coverage)
}
