// Package errors provides standardized error handling for the launchlet
// launcher. It implements structured error types with proper wrapping and
// classification, and maps each launcher-level failure class to a distinct
// process exit code so the scheduler's job accounting can tell a broken
// launch apart from a failed workload.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for launcher failure conditions
var (
	// Allocation-related errors
	ErrMissingAllocationData  = errors.New("missing allocation data")
	ErrMalformedNodeList      = errors.New("malformed node list")
	ErrEmptyHostList          = errors.New("empty host list")
	ErrInvalidNodeCount       = errors.New("invalid node count")
	ErrInvalidTaskCount       = errors.New("invalid task count")
	ErrInconsistentAllocation = errors.New("inconsistent allocation")

	// Spawn-related errors
	ErrSpawnFailure = errors.New("workload spawn failed")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Exit codes surfaced to the scheduler. The workload's own exit code is
// propagated verbatim; these apply only when the launcher itself fails
// before or while spawning.
const (
	ExitOK                     = 0
	ExitFailure                = 1
	ExitMissingAllocationData  = 64
	ExitEmptyHostList          = 65
	ExitInvalidNodeCount       = 66
	ExitInvalidTaskCount       = 67
	ExitInconsistentAllocation = 68
	ExitSpawnFailure           = 69
	ExitMalformedNodeList      = 70
	ExitInvalidConfig          = 78
)

// AllocationError represents an error reading or interpreting the
// scheduler-provided allocation context. Variable names the environment
// variable at fault.
type AllocationError struct {
	Variable string
	Err      error
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocation %s: %v", e.Variable, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// SpawnError represents a failure to start the workload process
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ConfigError represents an error in the launcher's own configuration
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// WorkloadError carries a non-zero exit code from a workload that failed on
// its own. It is not a launcher error; the exit code propagates verbatim.
type WorkloadError struct {
	Code int
}

func (e *WorkloadError) Error() string {
	return fmt.Sprintf("workload exited with code %d", e.Code)
}

func (e *WorkloadError) ExitCode() int {
	return e.Code
}

// Error wrapping constructors
func WrapAllocationError(variable string, err error) error {
	if err == nil {
		return nil
	}
	return &AllocationError{Variable: variable, Err: err}
}

func WrapSpawnError(command string, err error) error {
	if err == nil {
		return nil
	}
	return &SpawnError{Command: command, Err: fmt.Errorf("%w: %v", ErrSpawnFailure, err)}
}

func WrapConfigError(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ConfigError{Field: field, Err: err}
}

func NewMissingAllocationError(variable string) error {
	return WrapAllocationError(variable, ErrMissingAllocationData)
}

func NewWorkloadError(code int) error {
	return &WorkloadError{Code: code}
}

// Error classification functions
func IsAllocationError(err error) bool {
	var ae *AllocationError
	return errors.As(err, &ae)
}

func IsSpawnError(err error) bool {
	var se *SpawnError
	return errors.As(err, &se)
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

func IsWorkloadError(err error) bool {
	var we *WorkloadError
	return errors.As(err, &we)
}

// GetVariable extracts the environment variable name from an allocation error
func GetVariable(err error) (string, bool) {
	var ae *AllocationError
	if errors.As(err, &ae) {
		return ae.Variable, true
	}
	return "", false
}

// ExitCode maps an error to the launcher's process exit code. Workload
// failures carry their own code; launcher failures map to the distinct
// codes above; anything unrecognized falls back to a generic failure.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var we *WorkloadError
	if errors.As(err, &we) {
		return we.Code
	}

	switch {
	case errors.Is(err, ErrMissingAllocationData):
		return ExitMissingAllocationData
	case errors.Is(err, ErrEmptyHostList):
		return ExitEmptyHostList
	case errors.Is(err, ErrInvalidNodeCount):
		return ExitInvalidNodeCount
	case errors.Is(err, ErrInvalidTaskCount):
		return ExitInvalidTaskCount
	case errors.Is(err, ErrInconsistentAllocation):
		return ExitInconsistentAllocation
	case errors.Is(err, ErrSpawnFailure):
		return ExitSpawnFailure
	case errors.Is(err, ErrMalformedNodeList):
		return ExitMalformedNodeList
	case errors.Is(err, ErrInvalidConfig):
		return ExitInvalidConfig
	default:
		return ExitFailure
	}
}
