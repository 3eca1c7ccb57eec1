package domain

import (
	"errors"
	"fmt"
)

// ErrNoActiveProfile is returned when an operation needs the active chunk
// profile and none is configured. It is a setup mistake, not a transient
// failure, and is never silently defaulted.
var ErrNoActiveProfile = errors.New("no active chunk profile configured")

// ConfigError covers invalid operator-supplied configuration (malformed
// profiles). Rejected synchronously at the call site.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string { return "config error: " + e.Reason }

func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) || errors.Is(err, ErrNoActiveProfile)
}

// Ingest stage identifiers, preserved verbatim on the failed Document for
// operator diagnosis.
const (
	IngestStageUpload     = "upload"
	IngestStageExtraction = "extraction"
	IngestStageChunking   = "chunking"
	IngestStageEmbedding  = "embedding"
)

// IngestError marks a failure local to one document at a specific stage.
// Failures are contained: the worker records them and keeps processing
// other documents.
type IngestError struct {
	Stage string
	Err   error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s failed: %v", e.Stage, e.Err)
}

func (e *IngestError) Unwrap() error { return e.Err }

func NewIngestError(stage string, err error) *IngestError {
	return &IngestError{Stage: stage, Err: err}
}

// RetrievalError marks a failed retrieval request (vector store unreachable,
// query embedding failure). It never corrupts stored state; an empty result
// set is NOT a RetrievalError.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string { return fmt.Sprintf("retrieval failed: %v", e.Err) }

func (e *RetrievalError) Unwrap() error { return e.Err }
