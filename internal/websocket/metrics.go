package websocket

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// HubMetrics records hub activity through OpenTelemetry
type HubMetrics struct {
	connectionsTotal  metric.Int64Counter
	connectionsActive metric.Int64UpDownCounter
	messagesTotal     metric.Int64Counter
	droppedMessages   metric.Int64Counter
}

// NewHubMetrics creates the hub instruments on meter
func NewHubMetrics(meter metric.Meter) (*HubMetrics, error) {
	m := &HubMetrics{}
	var err error

	if m.connectionsTotal, err = meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	); err != nil {
		return nil, err
	}

	if m.connectionsActive, err = meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	); err != nil {
		return nil, err
	}

	if m.messagesTotal, err = meter.Int64Counter(
		"websocket_messages_total",
		metric.WithDescription("Total number of events delivered to clients"),
	); err != nil {
		return nil, err
	}

	if m.droppedMessages, err = meter.Int64Counter(
		"websocket_dropped_messages_total",
		metric.WithDescription("Events dropped because a queue was full"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *HubMetrics) connected(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

func (m *HubMetrics) disconnected(ctx context.Context) {
	if m == nil {
		return
	}
	m.connectionsActive.Add(ctx, -1)
}

func (m *HubMetrics) delivered(ctx context.Context, eventType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.messagesTotal.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", eventType)))
}

func (m *HubMetrics) dropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
