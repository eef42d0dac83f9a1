package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"tilecraft/server/config"
	"tilecraft/server/handlers"
	"tilecraft/server/network"
	"tilecraft/server/persistence"
	"tilecraft/server/services"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin during development
		// In production, restrict this to your client's domain
		return true
	},
}

func openStorage(cfg config.StorageConfig) (persistence.Storage, error) {
	switch cfg.Type {
	case "postgres":
		log.Println("Using PostgreSQL persistence")
		return persistence.NewPostgresStore(cfg.DatabaseURL)
	case "json":
		log.Println("Using JSON persistence")
		return persistence.NewJSONStore(filepath.Join(cfg.DataDir, cfg.JSONFile))
	default:
		log.Println("Using file persistence")
		return persistence.NewFileStore(cfg.DataDir)
	}
}

func generatorConfig(w config.WorldConfig) services.GeneratorConfig {
	return services.GeneratorConfig{
		Width:      w.Width,
		Height:     w.Height,
		SandLevel:  *w.SandLevel,
		TreeChance: w.TreeChance,
		Alpha:      w.Noise.Alpha,
		Beta:       w.Noise.Beta,
		Octaves:    w.Noise.Octaves,
		Scale:      w.Noise.Scale,
		Amplitude:  w.Noise.Amplitude,
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server configuration")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	db, err := openStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer db.Close()

	log.Println("Persistence initialized successfully")

	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	world, err := services.NewWorldService(db, cfg.Storage.WorldName, generatorConfig(cfg.World), rand.New(rand.NewSource(seed)))
	if err != nil {
		log.Fatalf("Failed to initialize world: %v", err)
	}

	clientManager := handlers.NewClientManager()
	inbox := network.NewInbox()
	loop := handlers.NewLoop(world, clientManager, inbox, cfg.Server.TickInterval, cfg.Server.AutosaveInterval, nil)

	// Set up HTTP routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		// Handle client connection
		handlers.HandleClientConnection(conn, inbox, clientManager)
	})
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx)
	}()

	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	if err := <-done; err != nil {
		log.Printf("Final save failed: %v", err)
	} else {
		log.Println("World saved")
	}
}
