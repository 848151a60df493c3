// Package server wires configuration, storage, services and the HTTP and
// gRPC endpoints into one runnable application and handles graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skillbridge/auth/internal/logging"
	"github.com/skillbridge/auth/internal/server/auth"
	"github.com/skillbridge/auth/internal/server/config"
	"github.com/skillbridge/auth/internal/server/httpapi"
	"github.com/skillbridge/auth/internal/server/repositories/repomanager"
	"github.com/skillbridge/auth/internal/server/services"

	gs "github.com/skillbridge/auth/internal/server/grpc"
)

type App struct {
	config        *config.Config
	logger        logging.Logger
	repomanager   repomanager.RepositoryManager
	authService   *services.AuthService
	userService   *services.UserService
	authenticator *services.Authenticator
}

// NewApp validates c, opens storage and runs migrations. Any failure here
// must stop the process before it serves traffic.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	codec, err := auth.NewCodec(c.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("signing key: %w", err)
	}

	m, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := m.RunMigrations(ctx); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &App{
		config:        c,
		logger:        logger,
		repomanager:   m,
		authService:   services.NewAuthService(m, codec, c, logger),
		userService:   services.NewUserService(m, logger),
		authenticator: services.NewAuthenticator(m, codec, c.PublicPaths, logger),
	}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewServer(app.authService, app.userService, app.authenticator, app.logger, httpapi.Options{
		RateLimitRPS:   app.config.RateLimitRPS,
		RateLimitBurst: app.config.RateLimitBurst,
	})
	if err := httpapi.Run(ctx, app.config.EndpointAddrHTTP, h, app.logger); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.userService, app.authenticator)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a signal arrives or a server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return app.repomanager.Close()
}
