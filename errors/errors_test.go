package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection lost", ErrConnectionLost, true},
		{"no connection", ErrNoConnection, true},
		{"publish failed", ErrPublishFailed, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"unknown type", ErrUnknownType, false},
		{"version mismatch", ErrVersionMismatch, false},
		{"timeout in message", fmt.Errorf("read timeout occurred"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"version mismatch", ErrVersionMismatch, true},
		{"plugin open", ErrPluginOpen, true},
		{"symbol not found", ErrSymbolNotFound, true},
		{"missing config", ErrMissingConfig, true},
		{"cycle", ErrCycle, false},
		{"wrapped mismatch", fmt.Errorf("load: %w", ErrVersionMismatch), true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"unknown type", ErrUnknownType, true},
		{"already connected", ErrAlreadyConnected, true},
		{"incompatible kinds", ErrIncompatibleKinds, true},
		{"cycle", ErrCycle, true},
		{"property kind", ErrPropertyKind, true},
		{"connection lost", ErrConnectionLost, false},
		{"version mismatch", ErrVersionMismatch, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"connection lost", ErrConnectionLost, ErrorTransient},
		{"version mismatch", ErrVersionMismatch, ErrorFatal},
		{"cycle", ErrCycle, ErrorInvalid},
		{"unknown error", fmt.Errorf("unknown error"), ErrorTransient},
		{"classified error", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, ErrorFatal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := Classify(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassifiedError(t *testing.T) {
	baseErr := fmt.Errorf("base error")
	ce := newClassified(ErrorTransient, baseErr, "Registry", "Create", "custom message")

	if ce.Class != ErrorTransient {
		t.Errorf("expected ErrorTransient, got %v", ce.Class)
	}
	if ce.Component != "Registry" {
		t.Errorf("expected Registry, got %s", ce.Component)
	}
	if ce.Operation != "Create" {
		t.Errorf("expected Create, got %s", ce.Operation)
	}
	if ce.Error() != "custom message" {
		t.Errorf("expected 'custom message', got %s", ce.Error())
	}
	if !errors.Is(ce, baseErr) {
		t.Error("classified error should unwrap to base error")
	}
}

func TestClassifiedError_NoMessage(t *testing.T) {
	ce := newClassified(ErrorTransient, fmt.Errorf("base error"), "Graph", "Connect", "")

	if ce.Error() != "base error" {
		t.Errorf("expected 'base error', got %s", ce.Error())
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "component", "method", "action") != nil {
		t.Error("wrapping nil should return nil")
	}

	result := Wrap(ErrCycle, "Graph", "Connect", "cycle check")
	expected := "Graph.Connect: cycle check failed: graph contains a cycle"
	if result == nil || result.Error() != expected {
		t.Errorf("expected '%s', got '%v'", expected, result)
	}
	if !errors.Is(result, ErrCycle) {
		t.Error("wrapped error should still match its sentinel")
	}
}

func TestWrapClassified(t *testing.T) {
	baseErr := fmt.Errorf("original error")

	tests := []struct {
		name     string
		wrapFunc func(error, string, string, string) error
		class    ErrorClass
	}{
		{"WrapTransient", WrapTransient, ErrorTransient},
		{"WrapFatal", WrapFatal, ErrorFatal},
		{"WrapInvalid", WrapInvalid, ErrorInvalid},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.wrapFunc(baseErr, "component", "method", "action")

			var ce *ClassifiedError
			if !errors.As(result, &ce) {
				t.Fatal("result should be a ClassifiedError")
			}
			if ce.Class != test.class {
				t.Errorf("expected %v, got %v", test.class, ce.Class)
			}
			if ce.Component != "component" || ce.Operation != "method" {
				t.Errorf("unexpected context %s.%s", ce.Component, ce.Operation)
			}
			if !strings.Contains(ce.Error(), "component.method: action failed") {
				t.Errorf("error should contain standard format, got: %s", ce.Error())
			}
			if test.wrapFunc(nil, "c", "m", "a") != nil {
				t.Error("wrapping nil should return nil")
			}
		})
	}
}

func TestWrapInvalid_OverridesSentinelClass(t *testing.T) {
	// A fatal sentinel wrapped as invalid reports the explicit class.
	err := WrapInvalid(ErrSymbolNotFound, "Pipeline", "Build", "lookup")
	if Classify(err) != ErrorInvalid {
		t.Errorf("expected invalid, got %v", Classify(err))
	}
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Error("sentinel should remain reachable")
	}
}

func BenchmarkClassify(b *testing.B) {
	err := Wrap(ErrAlreadyConnected, "Graph", "Connect", "input check")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Classify(err)
	}
}
