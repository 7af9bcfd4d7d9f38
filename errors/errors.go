package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input, definitions or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that abort the triggering operation
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Plugin loading errors
	ErrPluginOpen      = errors.New("plugin library could not be opened")
	ErrSymbolNotFound  = errors.New("plugin entry point not found")
	ErrVersionMismatch = errors.New("plugin logic version mismatch")
	ErrPluginRegister  = errors.New("plugin registration failed")

	// Registry errors
	ErrUnknownType   = errors.New("unknown node type")
	ErrFactoryFailed = errors.New("node factory failed")
	ErrModuleExists  = errors.New("module already registered")
	ErrModuleMissing = errors.New("module not registered")

	// Graph errors
	ErrInvalidNode       = errors.New("invalid node")
	ErrInvalidSocket     = errors.New("invalid socket")
	ErrAlreadyConnected  = errors.New("input socket already connected")
	ErrIncompatibleKinds = errors.New("incompatible socket kinds")
	ErrCycle             = errors.New("graph contains a cycle")
	ErrLinkNotFound      = errors.New("link not found")
	ErrNameTaken         = errors.New("node name already in use")

	// Property errors
	ErrInvalidProperty = errors.New("invalid property")
	ErrPropertyKind    = errors.New("property kind mismatch")
	ErrOutOfRange      = errors.New("property value out of range")

	// Data and configuration errors
	ErrInvalidData    = errors.New("invalid data format")
	ErrParsingFailed  = errors.New("parsing failed")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")

	// Transport errors
	ErrNoConnection   = errors.New("no connection available")
	ErrConnectionLost = errors.New("connection lost")
	ErrPublishFailed  = errors.New("publish failed")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// IsTransient checks if an error is transient and may be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	if errors.Is(err, ErrNoConnection) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrPublishFailed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "connection", "temporary", "unavailable"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should abort the operation
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	return errors.Is(err, ErrVersionMismatch) ||
		errors.Is(err, ErrPluginOpen) ||
		errors.Is(err, ErrSymbolNotFound) ||
		errors.Is(err, ErrPluginRegister) ||
		errors.Is(err, ErrMissingConfig)
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	for _, target := range []error{
		ErrUnknownType, ErrFactoryFailed, ErrInvalidNode, ErrInvalidSocket,
		ErrAlreadyConnected, ErrIncompatibleKinds, ErrCycle, ErrLinkNotFound,
		ErrNameTaken, ErrInvalidProperty, ErrPropertyKind, ErrOutOfRange,
		ErrInvalidData, ErrParsingFailed, ErrInvalidConfig,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient
	}

	if IsFatal(err) {
		return ErrorFatal
	}
	if IsInvalid(err) {
		return ErrorInvalid
	}

	// Unknown errors default to transient
	return ErrorTransient
}

// newClassified creates a new classified error.
// Use WrapTransient, WrapFatal or WrapInvalid instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
