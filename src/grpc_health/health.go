package grpc_health

import (
	"errors"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"satoshi-drop/src/logger"
	"satoshi-drop/src/models"
)

// PriceService is the health service name tracking the spot price feed.
const PriceService = "price"

// -----------------------------------------------------------------------------
// HealthServer exposes the standard gRPC health protocol. The overall status
// ("") is SERVING while the process runs; PriceService turns SERVING once the
// first price was applied.
// -----------------------------------------------------------------------------

type HealthServer struct {
	Logger *logger.Logger

	addr   string
	server *grpc.Server
	health *health.Server
}

// -----------------------------------------------------------------------------

func NewHealthServer(cfg *models.MConfig, log *logger.Logger) *HealthServer {
	if log == nil {
		log = logger.NewLogger(cfg, "HealthServer")
	}

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(PriceService, healthpb.HealthCheckResponse_NOT_SERVING)

	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	reflection.Register(server)

	return &HealthServer{
		Logger: log,
		addr:   fmt.Sprintf("%s:%d", cfg.GrpcHost, cfg.GrpcPort),
		server: server,
		health: hs,
	}
}

// -----------------------------------------------------------------------------

// Start listens on grpc_host:grpc_port and serves until Stop.
func (h *HealthServer) Start() error {
	lis, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on %s: %w", h.addr, err)
	}
	return h.Serve(lis)
}

// -----------------------------------------------------------------------------

// Serve serves on an existing listener.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.Logger.Info("Starting gRPC health server on %s", lis.Addr())
	if err := h.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve gRPC: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

// SetPriceLoaded flips the price service status.
func (h *HealthServer) SetPriceLoaded(loaded bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if loaded {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(PriceService, status)
}

// -----------------------------------------------------------------------------

// Listener adapts SetPriceLoaded to a store listener.
func (h *HealthServer) Listener() func(models.MDisplayData) {
	return func(update models.MDisplayData) {
		if update.Type == models.DisplayPrice {
			h.SetPriceLoaded(update.Price.Loaded)
		}
	}
}

// -----------------------------------------------------------------------------

// Stop marks every service NOT_SERVING and drains open RPCs.
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
