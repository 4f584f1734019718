package suggest

import (
	"errors"
	"fmt"
)

// Reason distinguishes the failure and degradation modes of a request.
type Reason string

const (
	ReasonMissingParameter     Reason = "missing_parameter"
	ReasonInvalidRequest       Reason = "invalid_request"
	ReasonNoData               Reason = "no_data"
	ReasonProviderDegraded     Reason = "provider_degraded"
	ReasonPersistenceFailure   Reason = "persistence_failure"
	ReasonArithmeticDegenerate Reason = "arithmetic_degenerate"
	ReasonInternal             Reason = "internal"
)

// ErrMissingParameter is wrapped by every RequestError for an absent or
// unusable required parameter.
var ErrMissingParameter = errors.New("missing required parameter")

// ErrInvalidRequest is wrapped by RequestErrors for request bodies or
// arguments that cannot be decoded.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError is a request-level failure with a machine-readable reason.
type RequestError struct {
	Reason  Reason `json:"reason"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

func missingParameter(format string, args ...any) *RequestError {
	return &RequestError{
		Reason:  ReasonMissingParameter,
		Message: fmt.Sprintf(format, args...),
		Err:     ErrMissingParameter,
	}
}

// ReasonOf returns the reason carried by err, or ReasonInternal.
func ReasonOf(err error) Reason {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonInternal
}
