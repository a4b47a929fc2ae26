package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"agent-platform/internal/di"
	"agent-platform/internal/domain/entity"
	"agent-platform/internal/infrastructure/env"
	"agent-platform/internal/infrastructure/userinteraction"
)

func main() {
	query := flag.String("query", "", "route and run a single query, then exit")
	interactive := flag.Bool("interactive", false, "read queries from stdin")
	userID := flag.String("user", entity.AnonymousUser, "user id for -query and -interactive")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envService := env.NewEnvService()
	cfg := di.ConfigFromEnv(envService)
	if *query != "" || *interactive {
		// keep the console readable
		cfg.Log.Output = "stderr"
		cfg.Log.Format = "console"
		cfg.Log.Level = envService.GetWithDefault("LOG_LEVEL", "warn")
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Initialization failed: %v", err)
	}
	defer container.Close()

	container.Logger.Info("Configuration loaded", "app_env", envService.AppEnv, "files", envService.Loaded)

	console := userinteraction.NewConsole(os.Stdin, os.Stdout)

	switch {
	case *query != "":
		res := container.Router.RouteAndExecute(ctx, *query, *userID, nil)
		console.ShowResult(res)
		if !res.Succeeded() {
			container.Close()
			os.Exit(1)
		}
	case *interactive:
		runInteractive(ctx, container, console, *userID)
	default:
		if err := container.Server.Run(ctx); err != nil {
			container.Logger.Error("Server stopped", "error", err)
			container.Close()
			os.Exit(1)
		}
	}
}

func runInteractive(ctx context.Context, container *di.Container, console *userinteraction.Console, userID string) {
	fmt.Println("Enter a query (Ctrl+D to quit):")
	for ctx.Err() == nil {
		q, err := console.ReadQuery()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			container.Logger.Error("Input failed", "error", err)
			return
		}
		if q == "" {
			continue
		}
		console.ShowResult(container.Router.RouteAndExecute(ctx, q, userID, nil))
	}
}
