package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/goleak"

	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receiveEvent(t *testing.T, client *Client) Event {
	t.Helper()
	select {
	case payload, ok := <-client.send:
		require.True(t, ok, "client queue closed")
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_StartStop(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)

	hub.Stop() // not started

	hub.Start()
	hub.Start()
	assert.True(t, hub.running)

	hub.Stop()
	hub.Stop()
	assert.False(t, hub.running)
}

func TestHub_RegisterBroadcastUnregister(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := NewClient(hub, newFakeConn(), "trace-42", logger)
	require.True(t, hub.Register(client))

	ev := receiveEvent(t, client)
	assert.Equal(t, TypeConnection, ev.Type)
	assert.Equal(t, "trace-42", ev.TraceID)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(TypeReportDeleted, map[string]string{"id": "abc"})
	ev = receiveEvent(t, client)
	assert.Equal(t, TypeReportDeleted, ev.Type)
	assert.Equal(t, map[string]interface{}{"id": "abc"}, ev.Data)
	assert.NotEmpty(t, ev.Timestamp)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	_, ok := <-client.send
	assert.False(t, ok, "unregister closes the client queue")
}

func TestHub_BroadcastAfterStopDoesNotBlock(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()
	hub.Stop()

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastQueueSize*2; i++ {
			hub.Broadcast(TypeReportCreated, i)
		}
		assert.False(t, hub.Register(NewClient(hub, newFakeConn(), "", logger)))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stopped hub")
	}
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hub := NewHub(logger)
	hub.Start()
	defer hub.Stop()

	client := NewClient(hub, newFakeConn(), "", logger)
	require.True(t, hub.Register(client))
	receiveEvent(t, client)

	for i := 0; i < cap(client.send); i++ {
		client.send <- []byte("{}")
	}

	hub.Broadcast(TypeReportCreated, "overflow")
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "Client send buffer full, disconnecting")
}

func TestHubMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(ctx)

	metrics, err := NewHubMetrics(provider.Meter("test"))
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, WithMetrics(metrics), WithKeepalive(time.Second, 2*time.Second))
	assert.Equal(t, time.Second, hub.pingPeriod)
	assert.Equal(t, 2*time.Second, hub.pongWait)

	hub.Start()
	client := NewClient(hub, newFakeConn(), "", logger)
	require.True(t, hub.Register(client))
	receiveEvent(t, client)
	hub.Broadcast(TypeReportCreated, "x")
	receiveEvent(t, client)
	hub.Stop()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if data, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), sums["websocket_connections_total"])
	assert.Equal(t, int64(1), sums["websocket_messages_total"])
}

func TestHubMetrics_NilSafe(t *testing.T) {
	var m *HubMetrics
	ctx := context.Background()
	m.connected(ctx)
	m.disconnected(ctx)
	m.delivered(ctx, TypeReportCreated, 3)
	m.dropped(ctx, "test")
}
