package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// MockNATSConn is an in-memory stand-in for a NATS connection's publish side.
// Thread-safe for concurrent use.
type MockNATSConn struct {
	mu         sync.RWMutex
	messages   map[string][][]byte
	closed     bool
	PublishErr error
}

// NewMockNATSConn creates a new mock connection.
func NewMockNATSConn() *MockNATSConn {
	return &MockNATSConn{messages: make(map[string][][]byte)}
}

// Publish records data under subject.
func (c *MockNATSConn) Publish(subject string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("connection is closed")
	}
	if c.PublishErr != nil {
		return c.PublishErr
	}

	msg := make([]byte, len(data))
	copy(msg, data)
	c.messages[subject] = append(c.messages[subject], msg)
	return nil
}

// Close marks the connection closed.
func (c *MockNATSConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Subjects returns every subject that received a message.
func (c *MockNATSConn) Subjects() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.messages))
	for s := range c.messages {
		out = append(out, s)
	}
	return out
}

// GetMessages returns a copy of the messages published on subject.
func (c *MockNATSConn) GetMessages(subject string) [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msgs := c.messages[subject]
	if msgs == nil {
		return nil
	}
	result := make([][]byte, len(msgs))
	copy(result, msgs)
	return result
}

// MessageCount returns the total number of published messages.
func (c *MockNATSConn) MessageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, msgs := range c.messages {
		n += len(msgs)
	}
	return n
}

// WaitForMessageCount waits until at least count messages were published.
func WaitForMessageCount(t *testing.T, conn *MockNATSConn, count int, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if conn.MessageCount() >= count {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d messages, got %d after %v", count, conn.MessageCount(), timeout)
}
