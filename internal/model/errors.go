package model

import "fmt"

// ConfigurationError marks an invalid or incomplete DownloadRequest.
// It is a caller bug and must not be retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

// Stage names the collaborator call that failed.
type Stage string

const (
	StageMetadata  Stage = "metadata"
	StageFetch     Stage = "fetch"
	StageTranscode Stage = "transcode"
)

// CollaboratorFailure wraps an error returned by the extractor or the
// transcoder. It is surfaced to the user as a single failure notice.
type CollaboratorFailure struct {
	Stage Stage
	Err   error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *CollaboratorFailure) Unwrap() error { return e.Err }
