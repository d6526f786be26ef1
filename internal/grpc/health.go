// Package grpc serves the standard gRPC health protocol for the campus API.
package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Learn-Trical-23/EE-24/internal/jobs"
)

// CleanupService is the health service name tracking the cleanup job.
const CleanupService = "campus.cleanup"

type CleanupStatusSource interface {
	Status() jobs.Status
}

// HealthReporter keeps CleanupService SERVING while the cleanup job's last run is recent.
type HealthReporter struct {
	health   *health.Server
	source   CleanupStatusSource
	maxAge   time.Duration
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	mu   sync.Mutex
	last healthpb.HealthCheckResponse_ServingStatus
}

// NewHealthReporter returns a reporter. A nil source leaves only the overall status.
func NewHealthReporter(source CleanupStatusSource, maxAge, interval time.Duration, logger zerolog.Logger) *HealthReporter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	h := &HealthReporter{
		health:   health.NewServer(),
		source:   source,
		maxAge:   maxAge,
		interval: interval,
		now:      time.Now,
		log:      logger,
	}
	if source != nil {
		h.Check()
	}
	return h
}

func (h *HealthReporter) Server() *health.Server {
	return h.health
}

// Check evaluates the cleanup status once and publishes it.
func (h *HealthReporter) Check() healthpb.HealthCheckResponse_ServingStatus {
	if h.source == nil {
		return healthpb.HealthCheckResponse_SERVING
	}
	return h.Observe(h.source.Status())
}

// Observe publishes the serving status for a cleanup snapshot. It is safe to
// call from the cleanup job's goroutine.
func (h *HealthReporter) Observe(status jobs.Status) healthpb.HealthCheckResponse_ServingStatus {
	if h.source == nil {
		return healthpb.HealthCheckResponse_SERVING
	}
	next := healthpb.HealthCheckResponse_SERVING
	if status.Stale(h.now(), h.maxAge) {
		next = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if next != h.last {
		h.log.Info().Str("service", CleanupService).Str("status", next.String()).Msg("health status changed")
		h.last = next
	}
	h.health.SetServingStatus(CleanupService, next)
	return next
}

// Run re-checks on every interval until ctx ends, then marks everything NOT_SERVING.
func (h *HealthReporter) Run(ctx context.Context) {
	if h.source == nil {
		<-ctx.Done()
		h.health.Shutdown()
		return
	}
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return
		case <-ticker.C:
			h.Check()
		}
	}
}

// NewServer builds the gRPC server. An empty serviceToken disables the service-token check.
func NewServer(reporter *HealthReporter, serviceToken string) (*grpc.Server, error) {
	var opts []grpc.ServerOption
	if serviceToken != "" {
		unary, err := NewServiceAuthUnaryInterceptor(serviceToken)
		if err != nil {
			return nil, err
		}
		stream, err := NewServiceAuthStreamInterceptor(serviceToken)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.UnaryInterceptor(unary), grpc.StreamInterceptor(stream))
	}
	server := grpc.NewServer(opts...)
	healthpb.RegisterHealthServer(server, reporter.Server())
	return server, nil
}
