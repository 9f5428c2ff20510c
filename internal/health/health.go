// Package health exposes the standard gRPC health service for the API. Its
// serving status follows a periodic store ping.
package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall ("") status.
const ServiceName = "cleia.Elicitation"

const probeTimeout = 5 * time.Second

// Pinger is satisfied by the store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves grpc.health.v1.Health.
type Server struct {
	db       Pinger
	interval time.Duration
	grpc     *grpc.Server
	health   *grpchealth.Server

	mu      sync.Mutex
	serving bool
}

// NewServer creates a health server that starts in NOT_SERVING until the
// first probe succeeds.
func NewServer(db Pinger, interval time.Duration) *Server {
	gs := grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle: 5 * time.Minute,
			Time:              2 * time.Minute,
			Timeout:           20 * time.Second,
		}),
	)
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{db: db, interval: interval, grpc: gs, health: hs}
	s.setServing(false)
	return s
}

// Serve probes the store once, starts the probe worker and serves on lis
// until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Probe(ctx)
	s.StartProbeWorker(ctx)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("gRPC health server listening", "addr", lis.Addr().String())
		errCh <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve grpc health: %w", err)
		}
		return nil
	}
}

// StartProbeWorker pings the store every interval until ctx is done.
func (s *Server) StartProbeWorker(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Health probe worker started", "interval", s.interval)

		for {
			select {
			case <-ticker.C:
				s.Probe(ctx)
			case <-ctx.Done():
				slog.Info("Health probe worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Probe pings the store once and updates the serving status.
func (s *Server) Probe(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := s.db.Ping(ctx)
	if err != nil && ctx.Err() == nil {
		slog.Warn("Health probe failed", "error", err)
	}
	s.setServing(err == nil)
}

// Serving reports the last probe result.
func (s *Server) Serving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serving
}

func (s *Server) setServing(ok bool) {
	s.mu.Lock()
	changed := s.serving != ok
	s.serving = ok
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)

	if changed {
		slog.Info("Health status changed", "status", status.String())
	}
}
