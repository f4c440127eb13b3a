package models

import (
	"fmt"
	"strings"
)

// The pipeline's fatal error taxonomy. Malformed individual records are not
// represented here: those are recovered locally with a logged warning and
// never propagate.

// ConfigurationError reports a parameter that does not match the pipeline's
// fixed configuration (unknown metro area, missing required raw column).
type ConfigurationError struct {
	Param string
	Value string
	Valid []string
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid %s %q", e.Param, e.Value)
	if len(e.Valid) > 0 {
		msg += ". Valid options: " + strings.Join(e.Valid, ", ")
	}
	return msg
}

// EmptyResultError reports that filtering produced zero rows. This is fatal
// across the pipeline: it almost always means a parameter mismatch, not
// genuinely absent data.
type EmptyResultError struct {
	Dataset string
	Detail  string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no %s records after filtering (%s)", e.Dataset, e.Detail)
}

// UpstreamError reports a failed fetch or a non-success status carried in
// an upstream batch. Never retried automatically.
type UpstreamError struct {
	Source string
	Detail string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s upstream failure: %s: %v", e.Source, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s upstream failure: %s", e.Source, e.Detail)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MissingArtifactError reports that an expected raw artifact file is absent.
type MissingArtifactError struct {
	Path string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("raw artifact not found at %s", e.Path)
}
