package grpc

import (
	"context"
	"time"

	"github.com/skillbridge/auth/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// authorizationKey is the metadata key carrying "Bearer <token>".
const authorizationKey = "authorization"

// publicMethods never get an identity resolved, mirroring the HTTP
// /api/v1/auth/** allow-list.
var publicMethods = map[string]struct{}{
	FullMethod("Register"):     {},
	FullMethod("Authenticate"): {},
	FullMethod("RefreshToken"): {},
	FullMethod("Logout"):       {},
}

func authorizationFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(authorizationKey); len(values) > 0 {
		return values[0]
	}
	return ""
}

// authInterceptor attaches the caller's identity to ctx. Like the HTTP
// filter it never rejects; handlers that need a principal check for one.
func (s *GRPCServer) authInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, public := publicMethods[info.FullMethod]; !public {
		if id, ok := s.authenticator.AuthenticateRequest(ctx, info.FullMethod, authorizationFromContext(ctx)); ok {
			ctx = auth.WithIdentity(ctx, id)
		}
	}
	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Info(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}
