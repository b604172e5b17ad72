package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"agentq/clients"
	anthropicclient "agentq/clients/anthropic"
	openaiclient "agentq/clients/openai"
	"agentq/config"
	"agentq/handlers"
	"agentq/middleware"
	"agentq/usecases/engine"
	"agentq/utils"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	EchoResponder bool   `long:"echo-responder" description:"Use the deterministic local echo responder instead of a real AI backend"`
	EnvFile       string `long:"env-file"       description:"Load environment variables from this file before reading config"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return err
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if opts.EchoResponder {
		cfg.Responder.Name = "echo"
	}

	// One broker per port: the queue state is in-memory and the worker is
	// strictly single, so a second instance would split the queue.
	instanceLock, err := utils.NewInstanceLock(cfg.Port)
	if err != nil {
		return err
	}
	if err := instanceLock.TryLock(); err != nil {
		return err
	}
	defer func() {
		if err := instanceLock.Unlock(); err != nil {
			log.Printf("⚠️ Failed to release instance lock: %v", err)
		}
	}()

	responder, err := buildResponder(cfg)
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.AlertConfig{
		WebhookURL:  cfg.AlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "agentq",
		LogsURL:     cfg.ServerLogsURL,
	})

	queueEngine := engine.New(responder, engine.Options{
		MaxQueueSize:      cfg.MaxQueueSize,
		ProcessingTimeout: cfg.ProcessingTimeout,
		DrainTimeout:      10 * time.Second,
	})
	queueEngine.Start(context.Background())

	messagesHandler := handlers.NewMessagesHTTPHandler(queueEngine)
	streamsHandler := handlers.NewStreamsHTTPHandler(queueEngine, cfg.KeepaliveInterval)
	threadsHandler := handlers.NewThreadsHTTPHandler(queueEngine)

	// Create a new router
	router := mux.NewRouter()

	handlers.SetupSystemEndpoints(router)
	messagesHandler.SetupEndpoints(router)
	streamsHandler.SetupEndpoints(router)
	threadsHandler.SetupEndpoints(router)

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              cfg.Host + ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(middleware.RequestIDMiddleware(c.Handler(router))),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, queueEngine)
}

// buildResponder wires the configured AI backend through the registry.
func buildResponder(cfg *config.AppConfig) (clients.Responder, error) {
	if !cfg.Responder.IsConfigured() {
		return nil, fmt.Errorf("responder %q is not fully configured", cfg.Responder.Name)
	}

	registry := clients.NewRegistry()
	registry.Register("anthropic", func() (clients.Responder, error) {
		return anthropicclient.NewAnthropicResponder(cfg.Responder.AnthropicAPIKey, cfg.Responder.AnthropicModel), nil
	})
	registry.Register("openai", func() (clients.Responder, error) {
		return openaiclient.NewOpenAIResponder(
			cfg.Responder.OpenAIAPIKey,
			cfg.Responder.OpenAIBaseURL,
			cfg.Responder.OpenAIModel,
		), nil
	})
	registry.Register("echo", func() (clients.Responder, error) {
		return clients.NewEchoResponder(), nil
	})

	responder, err := registry.Get(cfg.Responder.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to build responder: %w", err)
	}
	log.Printf("✅ Using responder: %s", cfg.Responder.Name)
	return responder, nil
}

func handleGracefulShutdown(server *http.Server, queueEngine *engine.Engine) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server shutdown error: %v", err)
		return err
	}

	// Drain the dispatch worker
	if err := queueEngine.Shutdown(); err != nil {
		return err
	}

	log.Printf("✅ Server stopped gracefully")
	return nil
}
