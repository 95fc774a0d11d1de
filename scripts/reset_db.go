package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("⚠️  WARNING: This will DELETE ALL RECONCILIATION DATA!")
	fmt.Println()
	fmt.Println("This will:")
	fmt.Println("  - Delete all postings and GL entries")
	fmt.Println("  - Delete all anomalies and readings")
	fmt.Println("  - Delete all packs, boxes and draw days")
	fmt.Println("  - Delete all games and users")
	fmt.Println("  - Reset all ID sequences")
	fmt.Println()
	fmt.Print("Type 'yes' to confirm: ")

	var confirm string
	fmt.Scanln(&confirm)

	if confirm != "yes" {
		fmt.Println("Reset cancelled.")
		return
	}

	// Load environment variables
	godotenv.Load()

	// Database connection
	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "lotto_db")

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		dbUser, dbPassword, dbHost, dbPort, dbName)

	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	fmt.Println()
	fmt.Println("🔄 Resetting database...")

	ctx := context.Background()

	// Start transaction
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	// Disable foreign key checks
	_, err = tx.Exec(ctx, "SET session_replication_role = 'replica'")
	if err != nil {
		log.Fatalf("Failed to disable foreign key checks: %v\n", err)
	}

	// Truncate all tables
	tables := []string{
		"gl_entries",
		"postings",
		"draw_days",
		"anomalies",
		"readings",
		"packs",
		"boxes",
		"games",
		"users",
	}

	for _, table := range tables {
		_, err = tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  ✓ Cleared %s\n", table)
	}

	// Re-enable foreign key checks
	_, err = tx.Exec(ctx, "SET session_replication_role = 'origin'")
	if err != nil {
		log.Fatalf("Failed to enable foreign key checks: %v\n", err)
	}

	// Reset sequences
	sequences := []string{
		"users_id_seq",
		"games_id_seq",
		"boxes_id_seq",
		"packs_id_seq",
		"readings_id_seq",
		"anomalies_id_seq",
		"draw_days_id_seq",
		"postings_id_seq",
		"gl_entries_id_seq",
	}

	for _, seq := range sequences {
		_, err = tx.Exec(ctx, fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH 1", seq))
		if err != nil {
			log.Printf("Warning: Failed to reset sequence %s: %v\n", seq, err)
		}
	}
	fmt.Println("  ✓ Reset ID sequences")

	// Create default admin user
	_, err = tx.Exec(ctx, `
		INSERT INTO users (name, email, role, store_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())`,
		"Administrator",
		"admin@lotto.local",
		"admin",
		1,
	)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v\n", err)
	}
	fmt.Println("  ✓ Created admin user")

	// Seed a few games so readings can be tested right away
	games := []struct {
		code   string
		name   string
		price  string
		size   int
		rate   string
	}{
		{"0512", "Lucky 7s", "1.00", 300, "0.06"},
		{"0731", "Cash Blast", "5.00", 60, "0.06"},
		{"0904", "Gold Rush", "10.00", 30, "0.06"},
	}

	for _, g := range games {
		_, err = tx.Exec(ctx, `
			INSERT INTO games (code, name, ticket_price, pack_size, commission_rate, active, created_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, NOW())`,
			g.code, g.name, g.price, g.size, g.rate,
		)
		if err != nil {
			log.Printf("Warning: Failed to create game %s: %v\n", g.code, err)
		}
	}
	fmt.Println("  ✓ Seeded sample games")

	// Commit transaction
	err = tx.Commit(ctx)
	if err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("✅ Database reset successful!")
	fmt.Println()
	fmt.Println("Database is now ready for testing!")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
