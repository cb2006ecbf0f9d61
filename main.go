package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/openboard/openboard/internal/api"
	"github.com/openboard/openboard/internal/config"
	"github.com/openboard/openboard/internal/room"
)

func main() {
	// Load .env if present, then the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// Initialize the room registry
	registry := room.NewRegistry()

	// Initialize API server
	server := api.NewServer(api.ServerConfig{
		Registry:      registry,
		SendQueueSize: cfg.SendQueueSize,
		ReadLimit:     cfg.ReadLimit,
	})

	// Configure HTTP server with timeouts
	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	log.Printf("Starting server on %s", cfg.Addr())

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
