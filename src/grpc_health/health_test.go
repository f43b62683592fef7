package grpc_health

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

func startHealth(t *testing.T) (*HealthServer, healthpb.HealthClient) {
	t.Helper()

	h := NewHealthServer(&models.MConfig{}, logger.NewLoggerWithWriter(io.Discard, "ERROR", "test"))
	lis := bufconn.Listen(1 << 20)
	go h.Serve(lis)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		h.Stop()
	})
	return h, healthpb.NewHealthClient(conn)
}

func check(t *testing.T, client healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q): %v", service, err)
	}
	return resp.GetStatus()
}

func TestPriceServiceFollowsLoadedState(t *testing.T) {
	h, client := startHealth(t)

	if got := check(t, client, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("process must be SERVING, got %s", got)
	}
	if got := check(t, client, PriceService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("price must be NOT_SERVING before the first fetch, got %s", got)
	}

	h.Listener()(models.MDisplayData{Type: models.DisplayCountdown})
	if got := check(t, client, PriceService); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("countdown updates must not change price health, got %s", got)
	}

	h.Listener()(models.MDisplayData{Type: models.DisplayPrice, Price: models.MPriceState{Loaded: true}})
	if got := check(t, client, PriceService); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("price must be SERVING once loaded, got %s", got)
	}
}
