// Package config loads nodeflow runtime configuration.
//
// A Config is built from three layers: compiled-in defaults, one or more
// JSON or YAML files merged key by key, and NODEFLOW_* environment variables.
// Environment variables address a key as PREFIX_SECTION_KEY, so
// NODEFLOW_ENGINE_SKIP_CLEAN=true sets engine.skip_clean and NODEFLOW_PIPELINE
// sets the top-level pipeline path. Values are converted to the field type,
// including durations ("250ms") and comma-separated lists.
//
//	loader := config.NewLoader()
//	loader.AddLayer("nodeflow.yaml")
//	loader.AddLayer("nodeflow.local.yaml")
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		return err
//	}
//
// Unknown keys in files are rejected. Validation errors are classified as
// invalid and wrap ErrInvalidConfig.
//
// SafeConfig guards a Config shared between goroutines. Get returns a copy and
// Update validates before swapping.
package config
