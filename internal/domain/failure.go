package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FailureKind classifies why an upstream call (embedding, classifier) failed.
type FailureKind string

// Upstream failure kinds.
const (
	FailureAuth         FailureKind = "auth"
	FailureQuota        FailureKind = "quota"
	FailureRateLimited  FailureKind = "rate_limited"
	FailureNetwork      FailureKind = "network"
	FailureTimeout      FailureKind = "timeout"
	FailureMalformed    FailureKind = "malformed"
	FailureUnavailable  FailureKind = "unavailable"
	FailureNoCredential FailureKind = "no_credential"
	FailureDisabled     FailureKind = "disabled"
	FailureCircuitOpen  FailureKind = "circuit_open"
	// FailureInternal marks an error that did not come from a classified upstream call.
	FailureInternal FailureKind = "internal"
)

// UpstreamError is the error returned by every outbound adapter.
// Kind drives fallback decisions; Err keeps the original cause.
type UpstreamError struct {
	Kind FailureKind
	Op   string
	Err  error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewUpstreamError creates an UpstreamError.
func NewUpstreamError(op string, kind FailureKind, err error) error {
	return &UpstreamError{Op: op, Kind: kind, Err: err}
}

// KindOf returns the FailureKind of err.
// Errors that are not UpstreamError are classified from well-known causes
// (context deadline, network, sentinel quota/rate errors) and otherwise
// reported as FailureInternal.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrEmbeddingQuotaExceeded):
		return FailureQuota
	case errors.Is(err, ErrRateLimited):
		return FailureRateLimited
	case errors.Is(err, ErrNoCredential):
		return FailureNoCredential
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	}
	return FailureInternal
}
