package client

import (
	"context"
	"testing"
	"time"

	"github.com/aeolun/yacs/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHeartbeatIntervalDefault(t *testing.T) {
	interval, err := HeartbeatInterval(5000 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 4000*time.Millisecond, interval)
}

func TestHeartbeatIntervalRejectsShortTimeouts(t *testing.T) {
	for _, d := range []time.Duration{0, time.Millisecond, 500 * time.Millisecond, 1000 * time.Millisecond, -time.Second} {
		_, err := HeartbeatInterval(d)
		assert.Error(t, err, d)
	}
	_, err := HeartbeatInterval(1001 * time.Millisecond)
	assert.NoError(t, err)
}

// TestHeartbeatIntervalSafety checks that for every accepted timeout the
// interval leaves the session alive: 0 < interval < timeout.
func TestHeartbeatIntervalSafety(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ms := rapid.Int64Range(-10_000, 10_000_000).Draw(t, "timeout_ms")
		timeout := time.Duration(ms) * time.Millisecond

		interval, err := HeartbeatInterval(timeout)
		if timeout <= time.Second {
			if err == nil {
				t.Fatalf("timeout %v accepted", timeout)
			}
			return
		}
		if err != nil {
			t.Fatalf("timeout %v rejected: %v", timeout, err)
		}
		if interval <= 0 || interval >= timeout {
			t.Fatalf("interval %v unsafe for timeout %v", interval, timeout)
		}
	})
}

func TestHeartbeatMonitorEmits(t *testing.T) {
	conn := NewMockConnection()
	require.NoError(t, conn.Connect(context.Background(), testIdentity))

	hb, err := NewHeartbeatMonitor(conn, testIdentity, 1020*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Millisecond, hb.Interval())
	m := NewMetrics()
	hb.SetMetrics(m)

	hb.Start(context.Background())
	hb.Start(context.Background()) // no second loop
	assert.True(t, hb.Running())

	require.Eventually(t, func() bool {
		return len(conn.EmittedEvents(protocol.EventHeartbeat)) >= 3
	}, 2*time.Second, 5*time.Millisecond)

	hb.Stop()
	assert.False(t, hb.Running())
	n := len(conn.EmittedEvents(protocol.EventHeartbeat))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, n, len(conn.EmittedEvents(protocol.EventHeartbeat)), "no beats after Stop")

	var p protocol.HeartbeatPayload
	require.NoError(t, conn.EmittedEvents(protocol.EventHeartbeat)[0].Decode(&p))
	assert.Equal(t, protocol.HeartbeatPayload{Nick: "alice", Token: "tok"}, p)
}

func TestHeartbeatMonitorKeepsTickingWhileDown(t *testing.T) {
	conn := NewMockConnection() // never connected: every emit fails

	hb, err := NewHeartbeatMonitor(conn, testIdentity, 1010*time.Millisecond)
	require.NoError(t, err)
	hb.Start(context.Background())
	defer hb.Stop()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Connect(context.Background(), testIdentity))

	require.Eventually(t, func() bool {
		return len(conn.EmittedEvents(protocol.EventHeartbeat)) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHeartbeatMonitorStopsWithContext(t *testing.T) {
	conn := NewMockConnection()
	hb, err := NewHeartbeatMonitor(conn, testIdentity, 2*time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hb.Start(ctx)
	cancel()
	hb.Stop() // returns once the loop observed cancellation
	hb.Stop() // idempotent
}
