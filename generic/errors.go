/*
errors.go - Centralized error types for the simulation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Missing or malformed simulation input
  2. Accounting errors - Anything that would break headcount conservation
  3. Store errors - Event log persistence failures

RECOVERY POLICY:
  Configuration problems that affect a single cohort or field are recovered
  locally (warning + safe default) and never reach these types. What does
  reach the caller aborts the run: no partial month is valid after an error.

USAGE:
  if errors.Is(err, generic.ErrProgressionConfigRequired) {
      // caller tried the legacy percentage path
  }

SEE ALSO:
  - ledger.go: Uses the store errors
  - workforce/manager.go: Raises DestinationError
  - factory/config.go: Raises ConfigError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrProgressionConfigRequired is returned when progression is requested
	// without an explicit CAT curve table. The engine refuses to guess.
	ErrProgressionConfigRequired = errors.New("progression configuration required")

	// ErrUnresolvableDestination is returned when promoted people of a
	// non-terminal level have no cohort to move into.
	ErrUnresolvableDestination = errors.New("unresolvable promotion destination")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidConfig is returned when simulation input cannot be used at all.
	ErrInvalidConfig = errors.New("invalid simulation config")

	// ErrRunNotFound is returned when a referenced simulation run doesn't exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrPersonNotFound is returned when a person has no recorded events.
	ErrPersonNotFound = errors.New("person not found")

	// ErrEventStoreClosed is returned when appending to a closed event store.
	ErrEventStoreClosed = errors.New("event store closed")

	// ErrDuplicateEvent is returned when an event ID is written twice.
	ErrDuplicateEvent = errors.New("duplicate event id")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError names the offending key of a configuration problem.
type ConfigError struct {
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Message)
}

func (e *ConfigError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfig
}

// DestinationError provides details about promotions that could not be placed.
type DestinationError struct {
	Office   string
	Role     string
	Level    string
	Promoted int
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("no next level for %s/%s/%s (%d promoted)",
		e.Office, e.Role, e.Level, e.Promoted)
}

func (e *DestinationError) Unwrap() error {
	return ErrUnresolvableDestination
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrProgressionConfigRequired)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound) ||
		errors.Is(err, ErrPersonNotFound)
}
