package grpc

import (
	"context"
	"errors"

	"github.com/skillbridge/auth/internal/common"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func field(in *structpb.Struct, name string) string {
	return in.GetFields()[name].GetStringValue()
}

func tokenPairStruct(p *services.TokenPair) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"access_token":  p.AccessToken,
		"refresh_token": p.RefreshToken,
	})
}

func requireIdentity(ctx context.Context) (auth.Identity, error) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "authentication required")
	}
	return id, nil
}

// toStatus maps service errors onto gRPC codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrInvalidRole),
		errors.Is(err, common.ErrIncorrectPassword),
		errors.Is(err, common.ErrPasswordMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid email or password")
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenRevokedOrUnknown),
		errors.Is(err, common.ErrSubjectMismatch):
		return status.Error(codes.Unauthenticated, "invalid or revoked token")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.authService.Register(ctx, services.RegisterRequest{
		FirstName: field(in, "firstName"),
		LastName:  field(in, "lastName"),
		Email:     field(in, "email"),
		Password:  field(in, "password"),
		Role:      field(in, "role"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairStruct(pair)
}

func (s *GRPCServer) Authenticate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	pair, err := s.authService.Authenticate(ctx, field(in, "email"), field(in, "password"))
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairStruct(pair)
}

// RefreshToken reads the refresh token from the request body, falling back
// to the authorization metadata.
func (s *GRPCServer) RefreshToken(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	token := field(in, "refresh_token")
	if token == "" {
		var ok bool
		if token, ok = common.BearerToken(authorizationFromContext(ctx)); !ok {
			return nil, status.Error(codes.Unauthenticated, "missing refresh token")
		}
	}
	pair, err := s.authService.RefreshAccessToken(ctx, token)
	if err != nil {
		return nil, toStatus(err)
	}
	return tokenPairStruct(pair)
}

func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	s.authService.Logout(ctx, authorizationFromContext(ctx))
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	err = s.userService.ChangePassword(ctx, id, services.ChangePasswordRequest{
		CurrentPassword:      field(in, "currentPassword"),
		NewPassword:          field(in, "newPassword"),
		ConfirmationPassword: field(in, "confirmationPassword"),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (s *GRPCServer) Me(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userService.Me(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	authorities := make([]any, 0, len(id.Authorities))
	for _, a := range id.Authorities {
		authorities = append(authorities, a)
	}
	return structpb.NewStruct(map[string]any{
		"id":          user.ID,
		"firstName":   user.FirstName,
		"lastName":    user.LastName,
		"email":       user.Email,
		"role":        string(user.Role),
		"authorities": authorities,
	})
}
