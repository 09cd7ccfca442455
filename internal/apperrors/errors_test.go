package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestCorruptRecordError(t *testing.T) {
	t.Parallel()

	cause := errors.New("unexpected end of JSON input")
	err := &CorruptRecordError{Path: "/data/registry/ab/cd1234.json", Cause: cause}

	if !errors.Is(err, ErrCorruptRecord) {
		t.Error("expected errors.Is to match ErrCorruptRecord")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the wrapped cause")
	}

	var target *CorruptRecordError
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to match *CorruptRecordError")
	}
	if target.Path != "/data/registry/ab/cd1234.json" {
		t.Errorf("unexpected path: %s", target.Path)
	}
}

func TestExternalFailureError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewExternalFailure("mediaapi", cause)

	if err == nil {
		t.Fatal("expected non-nil error")
	}
	if !errors.Is(err, ErrExternalFailure) {
		t.Error("expected errors.Is to match ErrExternalFailure")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the wrapped cause")
	}

	var target *ExternalFailureError
	if !errors.As(err, &target) {
		t.Fatal("expected errors.As to match *ExternalFailureError")
	}
	if target.Collaborator != "mediaapi" {
		t.Errorf("unexpected collaborator: %s", target.Collaborator)
	}
}

func TestNewExternalFailureNilCause(t *testing.T) {
	t.Parallel()

	if err := NewExternalFailure("provider", nil); err != nil {
		t.Errorf("expected nil error for nil cause, got %v", err)
	}
}

func TestWrappedSentinels(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("reading session file: %w", ErrIoFailure)
	if !errors.Is(wrapped, ErrIoFailure) {
		t.Error("expected wrapped sentinel to match with errors.Is")
	}
}
