// Command devserver runs the in-memory reference backend for local use of
// the extracker client.
//
// Environment variables:
//
//	DEV_ADDR          listen address (default :8000)
//	DEV_SEED          "false" starts with no demo data
//	JWT_SECRET        token signing secret
//	EXTRACKER_ROUTES  root (default) or v1
//	LOG_LEVEL         debug, info, warn, error
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/extracker/internal/api"
	"github.com/mmynk/extracker/internal/apitest"
	"github.com/mmynk/extracker/internal/middleware"
	"github.com/mmynk/extracker/internal/models"
	"github.com/mmynk/extracker/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	logging.Setup(os.Stderr, logging.LevelFromEnv())

	addr := getEnv("DEV_ADDR", ":8000")
	routes, err := api.ParseRoutes(os.Getenv("EXTRACKER_ROUTES"))
	if err != nil {
		slog.Error("Invalid routes", "error", err)
		os.Exit(1)
	}

	backend := apitest.New(
		apitest.WithRoutes(routes),
		apitest.WithSecret(getEnv("JWT_SECRET", "dev-only-change-me")),
	)
	if getEnv("DEV_SEED", "true") != "false" {
		if err := seed(backend); err != nil {
			slog.Error("Failed to seed demo data", "error", err)
			os.Exit(1)
		}
	}

	// Add logging and CORS middleware
	handler := middleware.Logging(middleware.CORS(backend.Handler()))

	// h2c lets clients speak HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	srv := &http.Server{
		Addr:              addr,
		Handler:           h2cHandler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("Reference backend starting", "address", addr, "url", fmt.Sprintf("http://localhost%s/", addr))
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// seed adds three verified users (password "password"), a group and a few
// settlements owed by alice.
func seed(b *apitest.Backend) error {
	for _, name := range []string{"alice", "bob", "carol"} {
		if _, err := b.AddUser(apitest.User{
			Username:      name,
			Email:         name + "@example.com",
			Password:      "password",
			College:       "UBC",
			Semester:      3,
			PaymentMethod: "UPI",
		}); err != nil {
			return err
		}
	}
	id, err := b.AddGroup("Trip to Banff", "alice", "bob")
	if err != nil {
		return err
	}
	b.AddSettlement("alice", models.Settlement{
		GroupName: "Trip to Banff",
		Amount:    decimal.NewFromInt(200),
		DueDate:   "2024-03-01",
	})
	b.AddSettlement("alice", models.Settlement{
		GroupName:        "Weekend Getaway",
		Amount:           decimal.NewFromInt(150),
		PaymentStatus:    models.StatusCompleted,
		SettlementMethod: "UPI",
		DueDate:          "2024-02-01",
		SettlementDate:   "2024-01-28",
	})
	slog.Info("Demo data seeded", "users", 3, "group_id", id)
	return nil
}
