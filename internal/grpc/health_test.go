package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/Learn-Trical-23/EE-24/internal/db/memstore"
	"github.com/Learn-Trical-23/EE-24/internal/jobs"
	"github.com/Learn-Trical-23/EE-24/internal/metrics"
)

type fixedStatus struct {
	status jobs.Status
}

func (f *fixedStatus) Status() jobs.Status {
	return f.status
}

func TestReporterTracksStaleness(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	source := &fixedStatus{}
	reporter := NewHealthReporter(source, 15*time.Minute, time.Minute, zerolog.Nop())
	reporter.now = func() time.Time { return now }

	if got := reporter.Check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING before first run, got %s", got)
	}

	lastRun := now.Add(-5 * time.Minute)
	source.status = jobs.Status{LastRun: &lastRun}
	if got := reporter.Check(); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING after recent run, got %s", got)
	}

	now = now.Add(time.Hour)
	if got := reporter.Check(); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("expected NOT_SERVING once stale, got %s", got)
	}
}

func TestReporterServesOnceCleanupHasRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	var reporter *HealthReporter
	cleanup := jobs.NewCleanup(memstore.New(), nil, metrics.New(), zerolog.Nop(), 5*time.Minute, time.Second,
		jobs.WithOnRun(func(status jobs.Status) { reporter.Observe(status) }))
	reporter = NewHealthReporter(cleanup, 15*time.Minute, 5*time.Minute, zerolog.Nop())
	go reporter.Run(ctx)
	cleanup.Start(ctx)

	require.Eventually(t, func() bool {
		resp, err := reporter.Server().Check(ctx, &healthpb.HealthCheckRequest{Service: CleanupService})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
}

func TestServiceAuthInterceptorRequiresToken(t *testing.T) {
	_, err := NewServiceAuthUnaryInterceptor("")
	if err == nil {
		t.Fatalf("expected error for empty token")
	}
	_, err = NewServiceAuthStreamInterceptor("")
	if err == nil {
		t.Fatalf("expected error for empty token")
	}
}

func dialHealth(t *testing.T, serviceToken string, source CleanupStatusSource) healthpb.HealthClient {
	t.Helper()
	reporter := NewHealthReporter(source, time.Hour, time.Minute, zerolog.Nop())
	server, err := NewServer(reporter, serviceToken)
	require.NoError(t, err)

	listener := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func TestHealthOverGRPC(t *testing.T) {
	lastRun := time.Now()
	client := dialHealth(t, "", &fixedStatus{status: jobs.Status{LastRun: &lastRun}})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: CleanupService})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	_, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: "campus.unknown"})
	require.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthRequiresServiceToken(t *testing.T) {
	client := dialHealth(t, "shared-secret", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.Equal(t, codes.Unauthenticated, status.Code(err))

	wrong := metadata.AppendToOutgoingContext(ctx, serviceTokenHeader, "nope")
	_, err = client.Check(wrong, &healthpb.HealthCheckRequest{})
	require.Equal(t, codes.PermissionDenied, status.Code(err))

	right := metadata.AppendToOutgoingContext(ctx, serviceTokenHeader, "shared-secret")
	resp, err := client.Check(right, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
