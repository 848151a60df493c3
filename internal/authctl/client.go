package authctl

import (
	"context"

	"github.com/skillbridge/auth/internal/common"
	gs "github.com/skillbridge/auth/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GRPCClient talks to the auth gRPC API and remembers the last token pair.
// Calls rejected as unauthenticated are retried once after a refresh.
type GRPCClient struct {
	conn         *grpc.ClientConn
	accessToken  string
	refreshToken string
}

func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func withAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	err := invoker(withAccessToken(ctx, c.accessToken), method, req, reply, cc, opts...)
	if status.Code(err) != codes.Unauthenticated || c.refreshToken == "" || method == gs.FullMethod("RefreshToken") {
		return err
	}

	if rerr := c.refresh(ctx); rerr != nil {
		return err
	}
	return invoker(withAccessToken(ctx, c.accessToken), method, req, reply, cc, opts...)
}

func (c *GRPCClient) invoke(ctx context.Context, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, gs.FullMethod(method), req, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *GRPCClient) refresh(ctx context.Context) error {
	out, err := c.invoke(ctx, "RefreshToken", map[string]any{"refresh_token": c.refreshToken})
	if err != nil {
		return err
	}
	c.accessToken = out.GetFields()["access_token"].GetStringValue()
	return nil
}

// Authenticate exchanges credentials for a token pair and keeps it.
func (c *GRPCClient) Authenticate(ctx context.Context, email, password string) error {
	out, err := c.invoke(ctx, "Authenticate", map[string]any{"email": email, "password": password})
	if err != nil {
		return err
	}
	c.accessToken = out.GetFields()["access_token"].GetStringValue()
	c.refreshToken = out.GetFields()["refresh_token"].GetStringValue()
	return nil
}

// Me returns the principal behind the current access token.
func (c *GRPCClient) Me(ctx context.Context) (map[string]any, error) {
	out, err := c.invoke(ctx, "Me", nil)
	if err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

// Logout revokes the current access token and forgets the pair.
func (c *GRPCClient) Logout(ctx context.Context) error {
	_, err := c.invoke(ctx, "Logout", nil)
	c.accessToken, c.refreshToken = "", ""
	return err
}
