// Package grpc exposes the product service health over gRPC.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the product API.
const ServiceName = "product.v1.ProductService"

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthMonitor keeps the gRPC health status in sync with the store.
type HealthMonitor struct {
	server   *health.Server
	pinger   Pinger
	interval time.Duration
	logger   *slog.Logger
}

// NewHealthMonitor creates a health server whose status follows pinger.
func NewHealthMonitor(pinger Pinger, interval time.Duration, logger *slog.Logger) *HealthMonitor {
	return &HealthMonitor{
		server:   health.NewServer(),
		pinger:   pinger,
		interval: interval,
		logger:   logger.With("component", "grpc-health"),
	}
}

// Server returns the grpc_health_v1 implementation to register.
func (m *HealthMonitor) Server() *health.Server {
	return m.server
}

// Check pings the store once and updates the status of the overall server and ServiceName.
func (m *HealthMonitor) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := m.pinger.Ping(ctx); err != nil {
		m.logger.WarnContext(ctx, "Store ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	m.server.SetServingStatus("", status)
	m.server.SetServingStatus(ServiceName, status)
	return status
}

// Run checks the store every interval until ctx is done, then marks the server as shutting down.
func (m *HealthMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			m.server.Shutdown()
			return nil
		case <-ticker.C:
			m.Check(ctx)
		}
	}
}
