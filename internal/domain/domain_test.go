package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestVector_Normalize(t *testing.T) {
	v := Vector{3, 4}.Normalize()
	if math.Abs(v.Norm()-1) > 1e-6 {
		t.Errorf("expected unit norm, got %f", v.Norm())
	}

	zero := Vector{0, 0}.Normalize()
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should stay zero")
	}
}

func TestVector_CheckDim(t *testing.T) {
	err := Vector{1, 2, 3}.CheckDim(4)
	if !errors.Is(err, ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	var de *DimensionError
	if !errors.As(err, &de) || de.Want != 4 || de.Got != 3 {
		t.Errorf("unexpected dimension error: %v", err)
	}
	if err := (Vector{1}).CheckDim(1); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine(Vector{1, 0}, Vector{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Errorf("identical vectors: %f", got)
	}
	if got := Cosine(Vector{1, 0}, Vector{0, 1}); math.Abs(got) > 1e-9 {
		t.Errorf("orthogonal vectors: %f", got)
	}
	if got := Cosine(Vector{1}, Vector{1, 0}); got != 0 {
		t.Errorf("length mismatch should be 0, got %f", got)
	}
}

func TestIndexRecord_Validate(t *testing.T) {
	if err := (IndexRecord{ID: "", Vector: Vector{1}}).Validate(1); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
	if err := (IndexRecord{ID: "u1", Vector: Vector{1}}).Validate(2); !errors.Is(err, ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestBatchError(t *testing.T) {
	cause := errors.New("connection reset")
	err := fmt.Errorf("upsert: %w", &BatchError{Index: "idx", Count: 3, Err: cause})
	if !errors.Is(err, ErrBatchUpsert) {
		t.Error("expected ErrBatchUpsert match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable")
	}
}

func TestIsConfigError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{fmt.Errorf("ensure: %w", ErrIndexCreate), true},
		{&DimensionError{Want: 4, Got: 3}, true},
		{ErrIndexNotFound, false},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := IsConfigError(tt.err); got != tt.want {
			t.Errorf("IsConfigError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"upstream", NewUpstreamError("embed", FailureAuth, errors.New("401")), FailureAuth},
		{"wrapped upstream", fmt.Errorf("x: %w", NewUpstreamError("embed", FailureQuota, nil)), FailureQuota},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"quota sentinel", ErrEmbeddingQuotaExceeded, FailureQuota},
		{"rate sentinel", ErrRateLimited, FailureRateLimited},
		{"no credential", ErrNoCredential, FailureNoCredential},
		{"other", errors.New("boom"), FailureInternal},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult(t *testing.T) {
	ok := FromPair(42, nil)
	if !ok.IsOk() || ok.UnwrapOr(0) != 42 || ok.Kind() != "" {
		t.Errorf("unexpected ok result: %+v", ok)
	}

	failed := FromPair(0, NewUpstreamError("classify", FailureTimeout, context.DeadlineExceeded))
	if failed.IsOk() {
		t.Fatal("expected failure")
	}
	if failed.Kind() != FailureTimeout {
		t.Errorf("Kind() = %q", failed.Kind())
	}
	if failed.UnwrapOr(7) != 7 {
		t.Error("UnwrapOr should return fallback")
	}
	if _, err := failed.Unwrap(); err == nil {
		t.Error("Unwrap should return the cause")
	}
}
