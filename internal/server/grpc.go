package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Health service names. The empty name is the overall status.
const (
	ServiceOCR = "contacts.ocr"
	ServiceLLM = "contacts.llm"
)

// NewGRPCServer returns a gRPC server carrying the standard health service and reflection
// (for grpcurl), plus the health server so the caller can drive its statuses.
func NewGRPCServer(opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	gs := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)
	for _, name := range []string{"", ServiceOCR, ServiceLLM} {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return gs, hs
}

// ReportHealth mirrors the extractor's capability report into hs every interval until ctx
// ends, then marks everything NOT_SERVING.
func ReportHealth(ctx context.Context, svc Extractor, hs *health.Server, interval time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	update := func() {
		checkCtx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		h := svc.Health(checkCtx)
		hs.SetServingStatus(ServiceOCR, servingStatus(h.OCR.Available))
		hs.SetServingStatus(ServiceLLM, servingStatus(h.LLM))
		hs.SetServingStatus("", servingStatus(h.Ready()))
		logger.Debug("grpc.health.updated", "ocr", h.OCR.Available, "llm", h.LLM, "queued", h.Queue.Queued)
	}

	update()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-t.C:
			update()
		}
	}
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
