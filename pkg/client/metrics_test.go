package client

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordEmit("heartbeat")
	m.RecordEmit("heartbeat")
	m.RecordEmitDropped("msg_send")
	m.RecordPush("joining")
	m.RecordInvalidPush("joining")
	m.RecordStaleResponse("messages")
	m.RecordReconnect()
	m.RecordHeartbeat()
	m.RecordConnected(true)
	m.RecordRequest("channels", nil, 10*time.Millisecond)
	m.RecordRequest("channels", errors.New("x"), 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.emits.WithLabelValues("heartbeat")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emitsDropped.WithLabelValues("msg_send")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pushes.WithLabelValues("joining")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invalidPushes.WithLabelValues("joining")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.staleResponses.WithLabelValues("messages")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconnects))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.heartbeats))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.connected))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))

	m.RecordConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.connected))
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordEmit("x")
		m.RecordEmitDropped("x")
		m.RecordPush("x")
		m.RecordInvalidPush("x")
		m.RecordStaleResponse("x")
		m.RecordReconnect()
		m.RecordHeartbeat()
		m.RecordRequest("x", nil, time.Second)
		m.RecordConnected(true)
	})
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.RecordHeartbeat()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "yacs_client_heartbeats_total 1")
}
