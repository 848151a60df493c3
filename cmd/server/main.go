package main

import (
	"context"
	"log"
	"os"

	"github.com/skillbridge/auth/internal/server"
	"github.com/skillbridge/auth/internal/server/config"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}
