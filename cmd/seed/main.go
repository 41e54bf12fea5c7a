package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"maimai/internal/auth"
	"maimai/internal/config"
	"maimai/internal/repository/postgres"
	postgresBilling "maimai/internal/repository/postgres/billing"
	"maimai/internal/seed"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed the rate card")
	ratesFile := flag.String("rates", "", "Rate card YAML (defaults to the embedded card)")
	devEmail := flag.String("dev-user", "", "Email of a dev account to create through the Supabase Admin API")
	devPassword := flag.String("dev-password", "maimai-dev", "Password for a newly created dev account")
	userID := flag.String("user-id", "", "Existing user id to grant credits to (instead of -dev-user)")
	credits := flag.Int("credits", 0, "Credits to grant to the dev user")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	logger.Info("seeding database", "environment", cfg.Environment, "table_prefix", cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.SupabaseDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		logger.Warn("dropping all tables")
		if err := seed.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	if err := seed.EnsureSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	card, err := loadRateCard(*ratesFile)
	if err != nil {
		log.Fatalf("Failed to load rate card: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	if err := seed.SeedRates(ctx, postgresBilling.NewModelCostRepository(repoConfig), card, logger); err != nil {
		log.Fatalf("Failed to seed rates: %v", err)
	}

	if *credits <= 0 {
		logger.Info("seeding complete")
		return
	}

	target := *userID
	if target == "" && *devEmail != "" {
		if cfg.SupabaseKey == "" {
			log.Fatalf("SUPABASE_KEY is required to create a dev user")
		}
		target, err = auth.NewAdminClient(cfg.SupabaseURL, cfg.SupabaseKey).EnsureUser(ctx, *devEmail, *devPassword)
		if err != nil {
			log.Fatalf("Failed to ensure dev user: %v", err)
		}
		logger.Info("dev user ready", "email", *devEmail, "user_id", target)
	}
	if target == "" {
		log.Fatalf("-credits needs -user-id or -dev-user")
	}

	balance, err := postgresBilling.NewProfileRepository(repoConfig).Credit(ctx, target, *credits)
	if err != nil {
		log.Fatalf("Failed to grant credits: %v", err)
	}
	logger.Info("seeding complete", "user_id", target, "credits", *credits, "balance", balance)
}

func loadRateCard(path string) (*seed.RateCard, error) {
	if path == "" {
		return seed.DefaultRateCard()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.ParseRateCard(data)
}
