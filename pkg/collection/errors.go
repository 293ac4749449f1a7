package collection

import (
	"errors"
	"fmt"
)

// Stage identifies which part of a load failed.
type Stage string

const (
	// StageFetch: the location could not be retrieved.
	StageFetch Stage = "fetch"
	// StageParse: bytes retrieved but not valid structured data, or a
	// required field is missing.
	StageParse Stage = "parse"
	// StageDefinition: the collection definition is internally
	// inconsistent.
	StageDefinition Stage = "definition"
)

// LoadError is the single typed failure a load surfaces. It names the
// failed stage and, where applicable, the entity type and location
// responsible. All load errors are fatal for that attempt and are never
// retried internally; unresolved references are warnings, not errors.
type LoadError struct {
	Stage      Stage
	Location   string
	EntityType string
	Err        error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("collection load failed at stage %s", e.Stage)
	if e.EntityType != "" {
		msg += fmt.Sprintf(" (entity type %q)", e.EntityType)
	}
	if e.Location != "" {
		msg += fmt.Sprintf(" (location %q)", e.Location)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// AsLoadError unwraps err to a *LoadError if it is one.
func AsLoadError(err error) (*LoadError, bool) {
	var le *LoadError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

func fetchError(location, entityType string, err error) *LoadError {
	return &LoadError{Stage: StageFetch, Location: location, EntityType: entityType, Err: err}
}

func parseError(location, entityType string, err error) *LoadError {
	return &LoadError{Stage: StageParse, Location: location, EntityType: entityType, Err: err}
}

func definitionError(err error) *LoadError {
	return &LoadError{Stage: StageDefinition, Err: err}
}
