// Package testutil provides fakes and fixtures for nodeflow tests.
//
// # Mock Implementations
//
// MockNode is a configurable node type:
//   - sockets and flags declared through options (WithInputs, WithOutputs, WithFlags)
//   - execute, restart and initialize behavior injected as funcs
//   - call counts for verification
//   - ProduceArray and SumArrays provide ready-made execute funcs
//
// MockModule is a compute module that counts initializations and can be made
// to fail.
//
// MockNATSConn records published status messages in memory so engine
// publishers can be tested without a NATS server.
//
// # Fixtures
//
// GradientGray, SolidRGBA and Checkerboard generate deterministic images.
// TestPipelineYAML and TestPipelineJSON describe a small pipeline built from
// the built-in node types.
//
// # Usage
//
//	reg, _ := registry.New()
//	id := reg.Register("Test/Source", testutil.MockFactory(
//	    testutil.WithOutputs(flowdata.KindArray),
//	    testutil.WithExecute(testutil.ProduceArray(2)),
//	))
package testutil
