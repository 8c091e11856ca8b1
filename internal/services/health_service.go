package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts"
)

const readinessTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	store     Pinger
	hub       ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. hub may be nil.
func NewHealthService(store Pinger, hub ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		store:     store,
		hub:       hub,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Services: map[string]interface{}{
			"storage":   hs.checkStorageHealth(ctx),
			"websocket": hs.checkWebSocketHealth(),
		},
	}

	for name, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "dependency not ready",
				slog.String("dependency", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	return map[string]interface{}{
		"version":      info.Version,
		"stage":        info.Stage,
		"api_version":  info.APIVersion,
		"data_format":  info.DataFormat,
		"build_time":   info.BuildTime,
		"git_commit":   info.GitCommit,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
}

func (hs *HealthService) checkStorageHealth(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "report store not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	if err := hs.store.Ping(ctx); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("report store unreachable: %v", err),
		}
	}
	return ServiceHealth{Status: "ready", Message: "report store is reachable"}
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	clients := 0
	if hs.hub != nil {
		clients = hs.hub.ClientCount()
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%d client(s) connected", clients),
		Uptime:  time.Since(hs.startTime).String(),
	}
}
