// Package grpc exposes the auth service over gRPC. It shares the services
// layer and the Authenticator with the HTTP API.
//
// The service is skillbridge.auth.AuthService. Every request and response is
// a google.protobuf.Struct with the string fields below. Calls other than
// the first four carry "authorization: Bearer <access token>" metadata.
//
//	Register        in:  firstName, lastName, email, password, role
//	                out: access_token, refresh_token
//	Authenticate    in:  email, password
//	                out: access_token, refresh_token
//	RefreshToken    in:  refresh_token (or "Bearer <refresh token>" metadata)
//	                out: access_token, refresh_token (echoed, not rotated)
//	Logout          in:  none; revokes the token in the metadata
//	                out: empty
//	ChangePassword  in:  currentPassword, newPassword, confirmationPassword
//	                out: empty
//	Me              in:  none
//	                out: id, firstName, lastName, email, role,
//	                     authorities (list of strings)
//
// Errors use status codes: InvalidArgument for validation and password
// errors, AlreadyExists for a taken email, Unauthenticated for bad
// credentials or tokens, NotFound and Internal otherwise.
package grpc

import (
	"context"
	"net"

	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address       string
	authService   *services.AuthService
	userService   *services.UserService
	authenticator *services.Authenticator
	logger        logging.Logger
}

func NewGRPCServer(addr string, l logging.Logger, as *services.AuthService, us *services.UserService, a *services.Authenticator) *GRPCServer {
	return &GRPCServer{
		address:       addr,
		authService:   as,
		userService:   us,
		authenticator: a,
		logger:        l.With("module", "grpc_server"),
	}
}

// NewServer builds a grpc.Server with the interceptor chain and this service
// registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.authInterceptor))
	srv := grpc.NewServer(opts...)
	RegisterAuthServiceServer(srv, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	served := make(chan struct{})
	defer close(served)
	go stopOnDone(ctx, served, func() {
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	})

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())
	return srv.Serve(lis)
}

// stopOnDone calls stop once ctx is cancelled. It returns without calling
// stop when served is closed first.
func stopOnDone(ctx context.Context, served <-chan struct{}, stop func()) {
	select {
	case <-ctx.Done():
		stop()
	case <-served:
	}
}
