// Package health tracks the health of the parts of a running nodeflow process
// and serves the aggregate over HTTP.
//
// # Health States
//
//   - healthy: operating normally
//   - degraded: running, but something needs attention (a node failed in the
//     last cycle, the status connection dropped, a plugin was refused)
//   - unhealthy: not functioning
//
// # Usage
//
//	monitor := health.NewMonitor()
//	monitor.UpdateHealthy("plugins", "2 plugins loaded")
//
//	eng := engine.New(g, engine.WithPublisher(health.CycleObserver(monitor)))
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	server.SetHealthHandler(monitor.Handler("nodeflow"))
//
// AggregateHealth combines every component: any unhealthy component makes the
// aggregate unhealthy, otherwise any degraded one makes it degraded. Handler
// answers 503 only for unhealthy.
//
// # Security
//
// Messages built from errors by FromError and CycleObserver are sanitized:
// URLs, file paths, IP addresses, ports and credential assignments are
// replaced with placeholders before they reach the endpoint.
package health
