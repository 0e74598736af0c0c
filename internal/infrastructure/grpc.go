package infrastructure

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const defaultHealthPollInterval = time.Second

type GRPCServer struct {
	server   *grpc.Server
	health   *health.Server
	listener net.Listener
}

// NewGRPCServer listens on addr and registers the standard health service.
// Every service starts NOT_SERVING.
func NewGRPCServer(addr string, withReflection bool) (*GRPCServer, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", addr, err)
	}

	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	if withReflection {
		reflection.Register(server)
	}

	return &GRPCServer{
		server:   server,
		health:   healthServer,
		listener: lis,
	}, nil
}

func (s *GRPCServer) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *GRPCServer) Start() error {
	logrus.WithField("addr", s.listener.Addr().String()).Info("grpc server starting")
	return s.server.Serve(s.listener)
}

// WatchReadiness flips the health status to SERVING once ready reports true
// and back when it stops doing so.
func (s *GRPCServer) WatchReadiness(ctx context.Context, ready func() bool) {
	go func() {
		ticker := time.NewTicker(defaultHealthPollInterval)
		defer ticker.Stop()

		serving := false
		for {
			if now := ready(); now != serving {
				serving = now
				status := healthpb.HealthCheckResponse_NOT_SERVING
				if serving {
					status = healthpb.HealthCheckResponse_SERVING
				}
				s.health.SetServingStatus("", status)
				logrus.WithField("status", status.String()).Info("grpc health status changed")
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (s *GRPCServer) Shutdown(ctx context.Context) error {
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
