package grpc

import (
	"context"
	"time"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// OpsServer is the gRPC server for health checks and reflection.
type OpsServer struct {
	Server  *grpc.Server
	Health  *health.Server
	service string
	logger  *logger.Logger
}

func NewOpsServer(serviceName string, appLogger *logger.Logger) *OpsServer {
	log := appLogger.Named("gRPC")
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(LoggingInterceptor(log)),
	)

	reflection.Register(server)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(serviceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	return &OpsServer{Server: server, Health: healthServer, service: serviceName, logger: log}
}

// MarkServing flips both the overall and the named service status.
func (s *OpsServer) MarkServing(serving bool) {
	st := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		st = grpc_health_v1.HealthCheckResponse_SERVING
	}
	s.Health.SetServingStatus("", st)
	s.Health.SetServingStatus(s.service, st)
	s.logger.Info("gRPC health status changed", zap.String("service", s.service), zap.String("status", st.String()))
}

// Shutdown reports NOT_SERVING and then drains in-flight calls.
func (s *OpsServer) Shutdown() {
	s.MarkServing(false)
	s.Health.Shutdown()
	s.Server.GracefulStop()
}

// LoggingInterceptor logs each unary call with its status code and trace id.
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		fields := []zap.Field{
			zap.String("method", info.FullMethod),
			zap.Duration("duration", time.Since(start)),
			zap.String("status_code", status.Code(err).String()),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}
		if err != nil {
			log.Error("gRPC request failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("gRPC request completed", fields...)
		}
		return resp, err
	}
}
