package health

import (
	"context"
	"fmt"

	"github.com/c360/nodeflow/engine"
)

// EngineComponent is the component name cycle reports are recorded under.
const EngineComponent = "engine"

// CycleObserver returns a publisher that records every cycle report in m. A
// cycle with node errors marks the engine degraded and names the first
// failing node; a clean cycle marks it healthy again.
func CycleObserver(m *Monitor) engine.Publisher {
	return engine.PublisherFunc(func(_ context.Context, report *engine.CycleReport) error {
		errs := report.Errors()
		metrics := &Metrics{
			Cycles:       report.Cycle,
			ErrorCount:   len(errs),
			LastActivity: report.Started,
		}

		if len(errs) == 0 {
			m.Update(EngineComponent, NewHealthy(EngineComponent,
				fmt.Sprintf("cycle %d executed %d nodes", report.Cycle, report.Executed())).WithMetrics(metrics))
			return nil
		}

		first := errs[0]
		msg := fmt.Sprintf("%d node(s) failed, first %s (%s): %s",
			len(errs), first.NodeName, first.TypeName, sanitizeErrorMessage(first.Message))
		m.Update(EngineComponent, NewDegraded(EngineComponent, msg).WithMetrics(metrics))
		return nil
	})
}
