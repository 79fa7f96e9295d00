// Command stepflowd starts the stepflow process engine HTTP API server.
//
// Usage:
//
//	stepflowd [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-store string
//	    Persistence backend: "memory" or a file path for a JSON-lines store
//	-allow-http
//	    Allow plain HTTP (not just HTTPS) for webhook task targets
//	-allow-private-ips
//	    Allow webhook task targets resolving to private IP ranges
//
// The server exposes the following endpoints:
//
//	POST   /definitions                               - register a process definition
//	POST   /instances                                 - create a process instance
//	POST   /instances/{id}/start                      - start a process instance
//	POST   /instances/{id}/tasks/{taskID}/complete     - resolve a suspended task
//	GET    /instances/{id}                             - fetch one instance
//	GET    /instances                                 - list all instances
//	GET    /health                                     - liveness + readiness summary
//	GET    /metrics                                    - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yesoreyeram/stepflow/pkg/config"
	"github.com/yesoreyeram/stepflow/pkg/engine"
	"github.com/yesoreyeram/stepflow/pkg/expression"
	"github.com/yesoreyeram/stepflow/pkg/logging"
	"github.com/yesoreyeram/stepflow/pkg/node"
	"github.com/yesoreyeram/stepflow/pkg/registry"
	"github.com/yesoreyeram/stepflow/pkg/server"
	"github.com/yesoreyeram/stepflow/pkg/storage"
	"github.com/yesoreyeram/stepflow/pkg/tasklib"
	"github.com/yesoreyeram/stepflow/pkg/telemetry"
	"github.com/yesoreyeram/stepflow/pkg/types"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	store := flag.String("store", "memory", `Persistence backend: "memory" or a file path`)
	allowHTTP := flag.Bool("allow-http", false, "Allow plain HTTP webhook task targets")
	allowPrivateIPs := flag.Bool("allow-private-ips", false, "Allow webhook task targets resolving to private IPs")
	flag.Parse()

	logger := logging.New(logging.DefaultConfig())

	cfg := config.Default()
	cfg.AllowHTTP = *allowHTTP
	cfg.AllowPrivateIPs = *allowPrivateIPs

	var collection storage.Collection
	if *store == "memory" {
		collection = storage.NewInMemoryCollection()
	} else {
		fileColl, err := storage.NewFileCollection(*store)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open store %q: %v\n", *store, err)
			os.Exit(1)
		}
		collection = fileColl
	}

	telemetryProvider, err := telemetry.NewProvider(context.Background(), telemetry.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create telemetry provider: %v\n", err)
		os.Exit(1)
	}

	reg := engine.DefaultRegistry()
	reg.MustRegister(registry.Registration{
		TaskType: types.TaskTypeService,
		Factory:  func(types.Task) node.Behavior { return node.ServiceTaskBehavior{} },
	})
	reg.MustRegister(registry.Registration{
		TaskType: types.TaskTypeDecision,
		Factory:  func(types.Task) node.Behavior { return node.DecisionBehavior{Evaluator: expression.New()} },
	})
	reg.MustRegister(registry.Registration{
		TaskType: "timer-task",
		Factory:  func(types.Task) node.Behavior { return tasklib.TimerBehavior{Default: 5 * time.Second} },
	})
	reg.MustRegister(registry.Registration{
		TaskType: "webhook-task",
		Factory:  func(types.Task) node.Behavior { return tasklib.NewWebhookBehavior(cfg, telemetryProvider) },
	})

	eng, err := engine.New(engine.Deps{
		Registry:   reg,
		Collection: collection,
		Logger:     logger,
		Telemetry:  telemetryProvider,
		Config:     cfg,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create engine: %v\n", err)
		os.Exit(1)
	}

	srv, err := server.New(server.DefaultConfig(), eng, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting stepflow process engine server on %s\n", *addr)
		fmt.Printf("Health check: http://localhost%s/health\n", *addr)
		fmt.Printf("Metrics:      http://localhost%s/metrics\n", *addr)
		fmt.Println("\nPress Ctrl+C to shutdown")

		if err := srv.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Println("shutting down gracefully...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("server stopped")
	}
}
