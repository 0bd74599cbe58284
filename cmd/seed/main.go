// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"gasworld/internal/core/id"
	"gasworld/internal/infrastructure/storage/postgres"
	"gasworld/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	ownerID, err := seedOwner(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed owner", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoStation(ctx, pool, log, ownerID); err != nil {
			log.Fatalw("failed to seed demo station", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedOwner(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	ownerEmail := os.Getenv("OWNER_EMAIL")
	if ownerEmail == "" {
		ownerEmail = "owner@gasworld.io"
	}

	ownerPassword := os.Getenv("OWNER_PASSWORD")
	if ownerPassword == "" {
		ownerPassword = "Owner123!"
	}

	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		ownerEmail,
	).Scan(&existingID)
	if err == nil {
		log.Infow("owner already exists", "email", ownerEmail, "user_id", existingID)
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check owner exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(ownerPassword), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	ownerID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, station_id, is_active)
		VALUES ($1, 'Owner', $2, $3, 'owner', NULL, true)
	`, ownerID, ownerEmail, string(passwordHash))
	if err != nil {
		return id.Nil(), fmt.Errorf("insert owner: %w", err)
	}

	log.Infow("owner created", "email", ownerEmail, "user_id", ownerID)
	return ownerID, nil
}

// seedDemoStation builds one complete station: a manager and an attendant,
// one product, one pit and two pumps drawing from it.
func seedDemoStation(ctx context.Context, pool *postgres.Pool, log *logger.Logger, ownerID id.ID) error {
	log.Info("seeding demo station...")

	stationName := "Demo Station"

	var stationID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM stations WHERE owner_id = $1 AND name = $2`,
		ownerID, stationName,
	).Scan(&stationID)
	if err == nil {
		log.Infow("demo station already exists", "station_id", stationID)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check station exists: %w", err)
	}

	stationID = id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO stations (id, owner_id, name, address, city, state)
		VALUES ($1, $2, $3, '12 Depot Road', 'Lagos', 'Lagos')
	`, stationID, ownerID, stationName)
	if err != nil {
		return fmt.Errorf("insert station: %w", err)
	}

	managerID, err := seedStaff(ctx, pool, stationID, "Demo Manager", "manager@gasworld.io", "manager")
	if err != nil {
		return fmt.Errorf("seed manager: %w", err)
	}

	_, err = pool.Pool.Exec(ctx,
		`UPDATE stations SET manager_id = $1, updated_at = now() WHERE id = $2`,
		managerID, stationID,
	)
	if err != nil {
		return fmt.Errorf("assign manager: %w", err)
	}

	attendantID, err := seedStaff(ctx, pool, stationID, "Demo Attendant", "attendant@gasworld.io", "attendant")
	if err != nil {
		return fmt.Errorf("seed attendant: %w", err)
	}

	productID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO products (id, station_id, name, description)
		VALUES ($1, $2, 'PMS', 'Premium Motor Spirit')
		ON CONFLICT (station_id, name) DO NOTHING
	`, productID, stationID)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	pitID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO pits (id, station_id, product_id, name, current_volume, max_volume)
		VALUES ($1, $2, $3, 'Pit A', $4, $5)
		ON CONFLICT (station_id, name) DO NOTHING
	`, pitID, stationID, productID,
		decimal.NewFromInt(20000), decimal.NewFromInt(33000))
	if err != nil {
		return fmt.Errorf("insert pit: %w", err)
	}

	for i := 1; i <= 2; i++ {
		pumpID := id.New()
		_, err = pool.Pool.Exec(ctx, `
			INSERT INTO pumps (id, station_id, product_id, pit_id, name, initial_meter)
			VALUES ($1, $2, $3, $4, $5, 0)
			ON CONFLICT (station_id, name) DO NOTHING
		`, pumpID, stationID, productID, pitID, fmt.Sprintf("Pump %d", i))
		if err != nil {
			return fmt.Errorf("insert pump %d: %w", i, err)
		}
	}

	log.Infow("demo station seeded",
		"station_id", stationID,
		"manager_id", managerID,
		"attendant_id", attendantID,
	)
	return nil
}

func seedStaff(ctx context.Context, pool *postgres.Pool, stationID id.ID, name, email, role string) (id.ID, error) {
	var existingID id.ID
	err := pool.Pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1`,
		email,
	).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return id.Nil(), fmt.Errorf("check staff exists: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("Password123!"), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, station_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
	`, userID, name, email, string(passwordHash), role, stationID)
	if err != nil {
		return id.Nil(), fmt.Errorf("insert staff: %w", err)
	}

	return userID, nil
}
