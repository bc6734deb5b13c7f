package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound marks an unknown user, job, roadmap or corpus.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a failed or non-success call to an external service.
	ErrUpstream = errors.New("upstream service error")
	// ErrConfig marks a missing credential or setting; returned before any network call.
	ErrConfig = errors.New("configuration error")
)

// UpstreamError describes a failed external call. It matches ErrUpstream via errors.Is.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
	Err     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d: %s", e.Service, e.Status, TruncateRunes(e.Body, 300, "..."))
	default:
		return fmt.Sprintf("%s: %s", e.Service, TruncateRunes(e.Body, 300, "..."))
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrUpstream, e.Err}
	}
	return []error{ErrUpstream}
}

// ConfigError reports a missing setting by its env name.
func ConfigError(name string) error {
	return fmt.Errorf("%w: %s is not set", ErrConfig, name)
}
