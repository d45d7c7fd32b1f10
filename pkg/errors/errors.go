// Package errors defines the error taxonomy shared by the analysis pipeline.
// Every error carries enough context (channel, stage) to diagnose which part
// of the computation rejected its input; none of them are retryable.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel values usable with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input data")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrModelAssumption      = errors.New("model assumption violated")
	ErrDegenerateAllocation = errors.New("degenerate allocation")
)

// InputError reports data that violates an ingestion precondition, such as a
// non-positive value where the log transform requires strict positivity, or
// series of mismatched lengths.
type InputError struct {
	Channel string
	Reason  string
}

func NewInputError(channel, format string, args ...interface{}) *InputError {
	return &InputError{Channel: channel, Reason: fmt.Sprintf(format, args...)}
}

func (e *InputError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("input error: %s", e.Reason)
	}
	return fmt.Sprintf("input error on channel %q: %s", e.Channel, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

// ConfigurationError reports a parameterization the data cannot support, e.g.
// a lag order the available observations can't identify, or a non-positive
// horizon or bootstrap count.
type ConfigurationError struct {
	Stage  string
	Reason string
}

func NewConfigurationError(stage, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error in %s: %s", e.Stage, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidConfiguration }

// ModelAssumptionError reports that a statistical precondition still fails
// after the pipeline applied its corrective transforms. The computation must
// not proceed on a misspecified model.
type ModelAssumptionError struct {
	Channel string
	Stage   string
	Reason  string
}

func NewModelAssumptionError(channel, stage, format string, args ...interface{}) *ModelAssumptionError {
	return &ModelAssumptionError{Channel: channel, Stage: stage, Reason: fmt.Sprintf(format, args...)}
}

func (e *ModelAssumptionError) Error() string {
	return fmt.Sprintf("model assumption violated at %s (channel %q): %s", e.Stage, e.Channel, e.Reason)
}

func (e *ModelAssumptionError) Is(target error) bool { return target == ErrModelAssumption }

// DegenerateAllocationError reports that the summed channel elasticities are
// zero or negative, so no well-defined budget split exists.
type DegenerateAllocationError struct {
	Total float64
}

func (e *DegenerateAllocationError) Error() string {
	return fmt.Sprintf("degenerate allocation: total elasticity %.6g is not positive", e.Total)
}

func (e *DegenerateAllocationError) Is(target error) bool { return target == ErrDegenerateAllocation }
