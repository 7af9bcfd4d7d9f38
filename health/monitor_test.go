package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeflow/engine"
	"github.com/c360/nodeflow/node"
)

func TestMonitor_Update(t *testing.T) {
	monitor := NewMonitor()

	monitor.Update("engine", Status{Component: "wrong-name", Status: StateHealthy})

	retrieved, exists := monitor.Get("engine")
	require.True(t, exists)
	assert.Equal(t, "engine", retrieved.Component, "Update uses the key as component name")
	assert.False(t, retrieved.Timestamp.IsZero(), "Update sets a missing timestamp")

	_, exists = monitor.Get("missing")
	assert.False(t, exists)
}

func TestMonitor_ConvenienceMethods(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("a", "fine")
	monitor.UpdateDegraded("b", "slow")
	monitor.UpdateUnhealthy("c", "down")

	a, _ := monitor.Get("a")
	b, _ := monitor.Get("b")
	c, _ := monitor.Get("c")

	assert.True(t, a.IsHealthy())
	assert.True(t, a.Healthy)
	assert.True(t, b.IsDegraded())
	assert.False(t, b.Healthy)
	assert.True(t, c.IsUnhealthy())
	assert.Equal(t, 3, monitor.Count())
	assert.Equal(t, []string{"a", "b", "c"}, monitor.ListComponents())

	monitor.Remove("b")
	assert.Equal(t, []string{"a", "c"}, monitor.ListComponents())

	all := monitor.GetAll()
	delete(all, "a")
	assert.Equal(t, 2, monitor.Count(), "GetAll returns a copy")

	monitor.Clear()
	assert.Zero(t, monitor.Count())
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		subs  []Status
		state string
	}{
		{"empty", nil, StateHealthy},
		{"all healthy", []Status{NewHealthy("a", ""), NewHealthy("b", "")}, StateHealthy},
		{"one degraded", []Status{NewHealthy("a", ""), NewDegraded("b", "")}, StateDegraded},
		{"unhealthy wins", []Status{NewDegraded("a", ""), NewUnhealthy("b", "")}, StateUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate("nodeflow", tt.subs)
			assert.Equal(t, tt.state, got.Status)
			assert.Len(t, got.SubStatuses, len(tt.subs))
		})
	}
}

func TestMonitor_AggregateHealthOrdered(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateHealthy("plugins", "")
	monitor.UpdateDegraded("nats", "")
	monitor.UpdateHealthy("engine", "")

	agg := monitor.AggregateHealth("nodeflow")
	assert.True(t, agg.IsDegraded())
	require.Len(t, agg.SubStatuses, 3)
	assert.Equal(t, "engine", agg.SubStatuses[0].Component)
	assert.Equal(t, "nats", agg.SubStatuses[1].Component)
	assert.Equal(t, "plugins", agg.SubStatuses[2].Component)
}

func TestStatus_WithSubStatusCopies(t *testing.T) {
	base := NewHealthy("parent", "").WithSubStatus(NewHealthy("a", ""))
	left := base.WithSubStatus(NewHealthy("b", ""))
	right := base.WithSubStatus(NewDegraded("c", ""))

	assert.Len(t, base.SubStatuses, 1)
	assert.Equal(t, "b", left.SubStatuses[1].Component)
	assert.Equal(t, "c", right.SubStatuses[1].Component)
}

func TestSanitizeErrorMessage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"dial nats://user:pw@10.0.0.5:4222 refused", "dial [URL] refused"},
		{"open /srv/images/frame.png: no such file", "open [PATH]: no such file"},
		{"host 192.168.1.100 unreachable", "host [IP] unreachable"},
		{"auth failed token=abc123", "auth failed [REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeErrorMessage(tt.in))
		})
	}
}

func TestFromError(t *testing.T) {
	ok := FromError("plugins", nil, "3 plugins loaded")
	assert.True(t, ok.IsHealthy())
	assert.Equal(t, "3 plugins loaded", ok.Message)

	bad := FromError("plugins", fmt.Errorf("open /opt/plugins/blur.so: bad ELF"), "")
	assert.True(t, bad.IsDegraded())
	assert.Equal(t, "open [PATH]: bad ELF", bad.Message)
}

func TestMonitor_Handler(t *testing.T) {
	monitor := NewMonitor()
	monitor.UpdateDegraded("nats", "disconnected")
	handler := monitor.Handler("nodeflow")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "degraded still answers 200")
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "nodeflow", body.Component)
	assert.Equal(t, StateDegraded, body.Status)

	monitor.UpdateUnhealthy("engine", "stopped")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCycleObserver(t *testing.T) {
	monitor := NewMonitor()
	observer := CycleObserver(monitor)
	started := time.Now()

	clean := &engine.CycleReport{
		Cycle:   1,
		Started: started,
		Results: []engine.NodeResult{
			{Name: "pattern", TypeName: "Sources/Test pattern", Status: node.StatusOk()},
			{Name: "gray", TypeName: "Conversion/Gray", Status: node.StatusOk()},
		},
	}
	require.NoError(t, observer.Publish(context.Background(), clean))

	st, ok := monitor.Get(EngineComponent)
	require.True(t, ok)
	assert.True(t, st.IsHealthy())
	require.NotNil(t, st.Metrics)
	assert.Equal(t, uint64(1), st.Metrics.Cycles)
	assert.Zero(t, st.Metrics.ErrorCount)
	assert.Equal(t, started, st.Metrics.LastActivity)

	failed := &engine.CycleReport{
		Cycle:   2,
		Started: started,
		Results: []engine.NodeResult{
			{Name: "load", TypeName: "Sources/Image from file", Status: node.StatusError("open /data/in.png failed")},
			{Name: "gray", TypeName: "Conversion/Gray", Status: node.StatusError("no input")},
		},
	}
	require.NoError(t, observer.Publish(context.Background(), failed))

	st, _ = monitor.Get(EngineComponent)
	assert.True(t, st.IsDegraded())
	assert.Equal(t, 2, st.Metrics.ErrorCount)
	assert.Contains(t, st.Message, "2 node(s) failed, first load (Sources/Image from file)")
	assert.NotContains(t, st.Message, "/data/in.png")

	require.NoError(t, observer.Publish(context.Background(), clean))
	st, _ = monitor.Get(EngineComponent)
	assert.True(t, st.IsHealthy(), "a clean cycle recovers")
}

func TestMonitor_ConcurrentAccess(t *testing.T) {
	monitor := NewMonitor()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := range 100 {
				monitor.UpdateHealthy(fmt.Sprintf("component-%d", id), fmt.Sprintf("update %d", j))
			}
		}(i)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = monitor.AggregateHealth("nodeflow")
				_ = monitor.ListComponents()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, monitor.Count())
}
