package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/skillbridge/auth/internal/authctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := authctl.NewApp(os.Stdin, os.Stdout)
	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "authctl:", err)
		stop()
		os.Exit(1)
	}
}
