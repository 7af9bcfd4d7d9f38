// Package errors provides standardized error handling for nodeflow.
//
// # Overview
//
// Errors are sorted into three classes:
//
//   - Transient: temporary conditions such as a lost NATS connection (retry may succeed)
//   - Invalid: bad input such as an unknown node type, a rejected link or a malformed definition
//   - Fatal: conditions that abort the triggering operation, such as a plugin ABI mismatch
//
// Per-cycle node failures are not errors in this sense. A node reports them through
// its execution status and the engine records them in the cycle report.
//
// # Error Wrapping Pattern
//
// All wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// The classification-aware wrappers set the class explicitly:
//
//	errors.WrapFatal(errors.ErrVersionMismatch, "NodeSystem", "LoadPlugin", "version check")
//	errors.WrapInvalid(err, "Graph", "Connect", "kind check")
//	errors.WrapTransient(err, "NATSPublisher", "Publish", "publish report")
//
// Sentinels survive wrapping, so callers test for specific conditions with Is:
//
//	if errors.Is(err, errors.ErrCycle) {
//	    // report the cycle to the user
//	}
//
// # Standard Error Variables
//
//   - Plugin loading: ErrPluginOpen, ErrSymbolNotFound, ErrVersionMismatch,
//     ErrPluginRegister
//   - Registry: ErrUnknownType, ErrFactoryFailed, ErrModuleExists, ErrModuleMissing
//   - Graph: ErrInvalidNode, ErrInvalidSocket, ErrAlreadyConnected, ErrIncompatibleKinds, ErrCycle
//   - Properties: ErrInvalidProperty, ErrPropertyKind, ErrOutOfRange
//   - Configuration: ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound
//
// # Thread Safety
//
// Classification and wrapping are safe for concurrent use. ClassifiedError values
// are immutable after creation.
package errors
