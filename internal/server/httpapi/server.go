// Package httpapi exposes the auth service over HTTP with gorilla/mux.
//
// Every routed request passes through the same chain: security headers,
// access logging, panic recovery and the authentication filter. Credential
// endpoints are rate limited per client IP; user endpoints require an
// identity; management endpoints require ROLE_ADMIN plus the admin
// permission matching the HTTP method.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/services"
)

// Options tunes the HTTP layer. RateLimitRPS <= 0 disables rate limiting.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	authService   *services.AuthService
	userService   *services.UserService
	authenticator *services.Authenticator
	logger        logging.Logger
	limiter       *rateLimiter
	router        *mux.Router
}

func NewServer(as *services.AuthService, us *services.UserService, a *services.Authenticator, logger logging.Logger, opts Options) *Server {
	s := &Server{
		authService:   as,
		userService:   us,
		authenticator: a,
		logger:        logger.With("module", "http"),
	}
	if opts.RateLimitRPS > 0 {
		s.limiter = newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(securityHeaders, s.logging, s.recoverer, s.authFilter)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()

	authR := v1.PathPrefix("/auth").Subrouter()
	authR.Handle("/register", s.rateLimit(http.HandlerFunc(s.handleRegister))).Methods(http.MethodPost)
	authR.Handle("/authenticate", s.rateLimit(http.HandlerFunc(s.handleAuthenticate))).Methods(http.MethodPost)
	authR.HandleFunc("/refresh-token", s.handleRefreshToken).Methods(http.MethodPost)
	authR.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	users := v1.PathPrefix("/users").Subrouter()
	users.Use(requireAuthenticated)
	users.HandleFunc("/password", s.handleChangePassword).Methods(http.MethodPatch)
	users.HandleFunc("/me", s.handleMe).Methods(http.MethodGet)
	users.HandleFunc("/me/sessions", s.handleSessions).Methods(http.MethodGet)

	management := v1.PathPrefix("/management").Subrouter()
	management.Use(requireAuthenticated, requireRole(auth.RoleAdmin), requireAuthority(managementAuthorities))
	management.HandleFunc("/roles", s.handleRoles).Methods(http.MethodGet)

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler, logger logging.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
