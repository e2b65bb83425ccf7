/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the attendance reconciliation server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Load reconciliation rules (thresholds, custom codes)
  3. Initialize SQLite store (runs, stage cache, holidays)
  4. Create API handler and start the retention scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080, env PORT)
  -db         SQLite database path (default: attendance.db, env DB_PATH)
              Use ":memory:" for in-memory database
  -rules      Rules JSON file (default: built-in rules, env RULES_FILE)
  -retention  How long archived runs are kept (default: 720h, env RETENTION)
  -workers    Reconciliation workers, overrides the rules file (env WORKERS)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with file database and custom rules
  ./server -db="./data/attendance.db" -rules="./rules.json"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - factory/rules.go: Rules file format
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/attendance-engine/api"
	"github.com/warp/attendance-engine/factory"
	"github.com/warp/attendance-engine/store/sqlite"
)

func main() {
	// Environment provides the defaults; flags win
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envString("DB_PATH", "attendance.db"), "SQLite database path")
	rulesFile := flag.String("rules", envString("RULES_FILE", ""), "Rules JSON file")
	retention := flag.Duration("retention", envDuration("RETENTION", api.DefaultRetention), "How long archived runs are kept")
	workers := flag.Int("workers", envInt("WORKERS", 0), "Reconciliation workers (0 keeps the rules file value)")
	flag.Parse()

	// Load rules
	rf := factory.NewRulesFactory()
	cfg := rf.Default()
	if *rulesFile != "" {
		loaded, err := rf.LoadFile(*rulesFile)
		if err != nil {
			log.Fatalf("Failed to load rules: %v", err)
		}
		cfg = loaded
		log.Printf("Loaded rules from %s (%d custom codes)", *rulesFile, len(cfg.Codes))
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, cfg)

	// Start retention scheduler
	scheduler := api.NewRetentionScheduler(store, store, *retention)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Ignoring %s=%q: %v", key, v, err)
		return def
	}
	return d
}
