package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mvillarin/campus-lostfound/app/api"
	"github.com/mvillarin/campus-lostfound/app/categories"
	"github.com/mvillarin/campus-lostfound/app/cfg"
	"github.com/mvillarin/campus-lostfound/app/claims"
	"github.com/mvillarin/campus-lostfound/app/database"
	"github.com/mvillarin/campus-lostfound/app/matching"
	"github.com/mvillarin/campus-lostfound/app/notification"
	"github.com/mvillarin/campus-lostfound/app/realtime"
	"github.com/mvillarin/campus-lostfound/app/uploads"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Load configuration from environment variables and command-line flags
	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	log.Println("Starting Campus Lost & Found server...")

	// Database connection
	log.Printf("Opening database at %s...", appCfg.DBPath)
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Println("Database ready")

	// Category registry with optional alias overrides
	registry, err := categories.Load(appCfg.CategoriesFile)
	if err != nil {
		log.Fatalf("Failed to load categories from %s: %v", appCfg.CategoriesFile, err)
	}
	log.Printf("Loaded %d item categories", registry.Count())

	// Upload storage
	store, err := uploads.NewStore(appCfg.UploadDir)
	if err != nil {
		log.Fatal("Failed to prepare upload directory:", err)
	}

	// Initialize repositories
	users := database.NewUserRepository(db)
	items := database.NewItemRepository(db)
	matches := database.NewMatchRepository(db)
	notifications := database.NewNotificationRepository(db)
	claimRepo := database.NewClaimRepository(db)

	// Initialize core components
	hub := realtime.NewHub()
	fanout := notification.NewFanout(notifications, hub)
	engine := matching.NewEngine(items, matches, fanout, registry)
	workflow := claims.NewWorkflow(claimRepo, items, matches, users, fanout, hub)

	// Initialize HTTP server
	log.Println("Initializing HTTP server...")
	handler := api.NewHandler(users, items, engine, fanout, workflow, hub, store, registry)
	server := api.NewServer(handler)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start HTTP server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("  Reports:        http://localhost:%s/api/report", appCfg.Port)
		log.Printf("  Custody search: http://localhost:%s/api/items/search", appCfg.Port)
		log.Printf("  Dashboard WS:   ws://localhost:%s/ws", appCfg.Port)
		log.Printf("  Health check:   http://localhost:%s/health", appCfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Campus Lost & Found server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Campus Lost & Found server shutdown complete")
}
