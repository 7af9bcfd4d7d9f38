// Package natsclient provides a NATS client with circuit breaker protection
// and automatic reconnection, used to publish engine cycle status.
//
// # Circuit Breaker
//
// Connect failures are counted. After a threshold of consecutive failures
// (default 5) the circuit opens and Connect fails fast with ErrCircuitOpen.
// After the current backoff the circuit half-opens and the next Connect tries
// again. Backoff doubles on each opening up to WithMaxBackoff.
//
// # Connection Lifecycle
//
// Disconnected → Connecting → Connected → Reconnecting → Connected. The
// underlying nats.go connection handles reconnects; the client mirrors its
// state and reports health changes through WithHealthChangeCallback.
//
// # Basic Usage
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//		natsclient.WithName("nodeflow"),
//		natsclient.WithLogger(logger),
//	)
//	if err != nil {
//		return err
//	}
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Close(context.Background())
//
//	pub := engine.NewNATSPublisher(client, "nodeflow.status", metrics)
//
// Client satisfies engine.Conn, so it can be handed to the status publisher
// directly.
package natsclient
