package client

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aeolun/yacs/pkg/protocol"
)

// heartbeatMargin is how much earlier than the server's idle timeout a beat is sent.
const heartbeatMargin = 1000 * time.Millisecond

// HeartbeatInterval returns the emit interval for a server idle timeout.
// The result is strictly positive and strictly less than timeout.
func HeartbeatInterval(timeout time.Duration) (time.Duration, error) {
	if timeout <= heartbeatMargin {
		return 0, fmt.Errorf("idle timeout %v must exceed %v", timeout, heartbeatMargin)
	}
	return timeout - heartbeatMargin, nil
}

// HeartbeatMonitor emits heartbeats on a fixed interval for the lifetime of a
// session. A failed emit is not retried; the next tick tries again.
type HeartbeatMonitor struct {
	conn     ConnectionInterface
	id       Identity
	interval time.Duration
	metrics  *Metrics
	logger   *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHeartbeatMonitor creates a monitor for the given server idle timeout.
func NewHeartbeatMonitor(conn ConnectionInterface, id Identity, idleTimeout time.Duration) (*HeartbeatMonitor, error) {
	interval, err := HeartbeatInterval(idleTimeout)
	if err != nil {
		return nil, err
	}
	return &HeartbeatMonitor{conn: conn, id: id, interval: interval}, nil
}

func (h *HeartbeatMonitor) SetLogger(logger *log.Logger) { h.logger = logger }
func (h *HeartbeatMonitor) SetMetrics(m *Metrics)       { h.metrics = m }

// Interval returns the emit interval
func (h *HeartbeatMonitor) Interval() time.Duration {
	return h.interval
}

func (h *HeartbeatMonitor) logf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

// Start begins emitting. Calling Start on a running monitor is a no-op.
func (h *HeartbeatMonitor) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.done = make(chan struct{})
	go h.loop(ctx, h.done)
}

// Stop ends the loop and waits for it to exit.
func (h *HeartbeatMonitor) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the loop is active
func (h *HeartbeatMonitor) Running() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancel != nil
}

func (h *HeartbeatMonitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.beat()
		}
	}
}

func (h *HeartbeatMonitor) beat() {
	err := h.conn.Emit(protocol.EventHeartbeat, &protocol.HeartbeatPayload{Nick: h.id.Nick, Token: h.id.Token})
	if err != nil {
		h.logf("Heartbeat not sent: %v", err)
		return
	}
	h.metrics.RecordHeartbeat()
}
