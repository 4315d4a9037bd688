package reconcile

import (
	"errors"
	"fmt"
	"strings"
)

// AmbiguousServiceError reports that more than one remote service matched an
// identity that must be unique. The condition cannot self-resolve, so callers
// must not retry.
type AmbiguousServiceError struct {
	Cluster string
	Service string
	// Matches lists the names of every remote service that matched.
	Matches []string
}

func (e *AmbiguousServiceError) Error() string {
	return fmt.Sprintf("multiple services in cluster %s match %s: %s",
		e.Cluster, e.Service, strings.Join(e.Matches, ", "))
}

// IsAmbiguousService checks whether err is or wraps an AmbiguousServiceError.
func IsAmbiguousService(err error) bool {
	var ambiguous *AmbiguousServiceError
	return errors.As(err, &ambiguous)
}

// SubmissionError reports a non-success response from the cluster control
// plane on a register or update call. The remote error is carried verbatim;
// nothing is retried or rolled back, remote state from before the call is
// assumed still valid.
type SubmissionError struct {
	// Operation names the control-plane call that failed.
	Operation string
	// Cause is the remote error payload.
	Cause error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s was rejected: %v", e.Operation, e.Cause)
}

func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// IsSubmission checks whether err is or wraps a SubmissionError.
func IsSubmission(err error) bool {
	var submission *SubmissionError
	return errors.As(err, &submission)
}
