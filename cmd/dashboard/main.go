// cmd/dashboard/main.go
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/retainly/retention-engine/internal/config"
	"github.com/retainly/retention-engine/internal/controller"
	"github.com/retainly/retention-engine/internal/db"
	"github.com/retainly/retention-engine/internal/repository"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	// The dashboard loads the same query file as the retention job, so
	// the displayed segment can never drift from the dispatched one.
	query, err := cfg.LoadQuery()
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}

	store, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	defer store.Close()

	dashboardController := &controller.DashboardController{
		Users:    &repository.UserRepository{DB: store, Query: query},
		Criteria: cfg.Criteria,
	}

	r := chi.NewRouter()

	// Read-only reporting routes
	r.Get("/stats", dashboardController.Stats)
	r.Get("/segment", dashboardController.Segment)
	r.Get("/users", dashboardController.ListUsers)

	log.Printf("🚀 Dashboard running on %s", cfg.DashboardAddr)
	log.Fatal(http.ListenAndServe(cfg.DashboardAddr, r))
}
