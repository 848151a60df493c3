package common

const (
	// AuthorizationHeaderName carries the bearer token on HTTP requests and
	// in gRPC metadata (lower-cased there).
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the token inside the Authorization header.
	BearerPrefix = "Bearer "
)
