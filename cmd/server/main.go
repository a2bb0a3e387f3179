package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "storepos/internal/adapters/web"
	"storepos/internal/core"
	"storepos/internal/db"
	"storepos/migrations"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := migrations.Migrate(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	svc := webAdapter.Services{
		Categories: core.NewCategoryService(pool),
		Suppliers:  core.NewSupplierService(pool),
		Customers:  core.NewCustomerService(pool),
		Products:   core.NewProductService(pool),
		Sales:      core.NewSaleService(pool),
		Reports:    core.NewReportingService(pool),
		Users:      core.NewUserService(pool),
		Settings:   core.NewSettingsService(pool),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Println("Warning: JWT_SECRET is not set, using an insecure default")
		jwtSecret = "insecure-dev-secret"
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
