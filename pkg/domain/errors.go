package domain

import (
	"errors"
	"fmt"
)

// ErrNotLoaded is returned when an operation needs a loaded definition.
var ErrNotLoaded = errors.New("no definition loaded")

// ErrNoTransition is returned by engines when an event enables no transition.
var ErrNoTransition = errors.New("no enabled transition for event")

// ErrUnknownDatamodel is returned when no scripting context serves a datamodel.
var ErrUnknownDatamodel = errors.New("unknown datamodel")

// ErrNoDataModel is returned when an assignment targets a definition without data.
var ErrNoDataModel = errors.New("definition declares no data model")

// DefinitionError reports a malformed or inconsistent state-chart definition.
type DefinitionError struct {
	StateID string
	Reason  string
	Err     error
}

func (e *DefinitionError) Error() string {
	msg := "invalid definition"
	if e.StateID != "" {
		msg = fmt.Sprintf("invalid definition at state '%s'", e.StateID)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DefinitionError) Unwrap() error { return e.Err }

// DataLoadError reports an unreadable or malformed JSON baseline.
type DataLoadError struct {
	Path string
	Err  error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("failed to load data model baseline '%s': %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// EngineStartError reports that the execution engine rejected a definition.
type EngineStartError struct {
	Err error
}

func (e *EngineStartError) Error() string {
	return fmt.Sprintf("execution engine rejected definition: %v", e.Err)
}

func (e *EngineStartError) Unwrap() error { return e.Err }

// ModelError reports a failed event dispatch. The active configuration is unchanged.
type ModelError struct {
	Event string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("event '%s' failed: %v", e.Event, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// AssignmentError reports a scripted assignment that failed to evaluate.
type AssignmentError struct {
	Path    string
	Literal string
	Err     error
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("failed to assign %s to '%s': %v", e.Literal, e.Path, e.Err)
}

func (e *AssignmentError) Unwrap() error { return e.Err }

// EvalError reports a guard expression that failed to evaluate.
// It never crosses the IsExpressionTrue boundary, where it reads as false.
type EvalError struct {
	Expr string
	Err  error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("failed to evaluate '%s': %v", e.Expr, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }

// IsLoadError reports whether err aborted an initialization.
func IsLoadError(err error) bool {
	var defErr *DefinitionError
	var dataErr *DataLoadError
	var startErr *EngineStartError
	return errors.As(err, &defErr) || errors.As(err, &dataErr) || errors.As(err, &startErr)
}
