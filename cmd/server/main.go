package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gildedtable/internal/common/clock"
	"gildedtable/internal/common/identifier"
	"gildedtable/internal/dice"
	"gildedtable/internal/handlers/ws"
	roomRepo "gildedtable/internal/repositories/room"
	"gildedtable/internal/services/session"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	port := getEnv("PORT", "3000")
	staticDir := getEnv("STATIC_DIR", "./static")

	gracePeriod, err := time.ParseDuration(getEnv("ROOM_GRACE_PERIOD", "1h"))
	if err != nil {
		log.Fatalf("Invalid ROOM_GRACE_PERIOD: %v", err)
	}

	// Initialize the room registry
	repo, err := roomRepo.NewMemory(&roomRepo.Config{})
	if err != nil {
		log.Fatalf("Failed to create room repository: %v", err)
	}

	// Initialize the connection registry; it doubles as the session
	// service's dispatcher
	registry := ws.NewRegistry()

	idGenerator := identifier.New()

	// Initialize the session service
	sessionSvc, err := session.New(&session.Config{
		Repository:  repo,
		Dispatcher:  registry,
		Roller:      dice.New(&dice.Config{}),
		Clock:       &clock.DefaultClock{},
		IDGenerator: idGenerator,
		GracePeriod: gracePeriod,
	})
	if err != nil {
		log.Fatalf("Failed to create session service: %v", err)
	}

	// Initialize the websocket handler
	handler, err := ws.New(&ws.Config{
		Service:     sessionSvc,
		Registry:    registry,
		IDGenerator: idGenerator,
	})
	if err != nil {
		log.Fatalf("Failed to create websocket handler: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/ws", handler)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		log.Printf("gildedtable listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down: %v", err)
	}

	log.Println("Server has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
