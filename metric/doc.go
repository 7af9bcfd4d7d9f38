// Package metric provides Prometheus-based metrics collection and an HTTP
// server for nodeflow.
//
// MetricsRegistry wraps a private Prometheus registry. It carries the
// platform metrics (registered node types, loaded plugins, status publishing)
// and lets components such as the execution engine register their own
// collectors under a component name. Go runtime and process collectors are
// always included.
//
// Server exposes the registry in Prometheus format together with a /health
// endpoint:
//
//	registry := metric.NewMetricsRegistry()
//	server := metric.NewServer(9090, "/metrics", registry)
//
//	go func() {
//	    if err := server.Start(); err != nil {
//	        log.Printf("metrics server error: %v", err)
//	    }
//	}()
//	defer server.Stop()
//
// Run ties the server to a context instead and shuts it down gracefully when
// the context ends.
package metric
