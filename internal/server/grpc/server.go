package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/profilekeeper/internal/logging"
	pb "github.com/dmitrijs2005/profilekeeper/internal/proto"
	"github.com/dmitrijs2005/profilekeeper/internal/server/documents"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	pb.UnimplementedDocumentStoreServer
	address   string
	documents *documents.Service
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, ds *documents.Service) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		documents: ds,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.identityInterceptor))
	pb.RegisterDocumentStoreServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
