package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"OurFloWorks/internal/appmanager"
)

// dbDSN assembles the Postgres connection string from env vars, or ""
// when the database is not configured.
func dbDSN() string {
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user == "" || host == "" || port == "" || name == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, name)
}

// InitDB opens the shared database handles. The service runs without a
// database (run history and retention disabled), so a missing config is
// a warning rather than a fatal.
func InitDB() {
	dsn := dbDSN()
	if dsn == "" {
		log.Println("[MAIN] DB_* env vars not set, running without run history")
		return
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Printf("[MAIN] failed to open DB, running without run history: %v", err)
		return
	}
	appmanager.SetDB(db)

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Printf("[MAIN] failed to create pgx pool, running without run history: %v", err)
		return
	}
	appmanager.SetPgxPool(pool)
}

// servicesPath returns the first service sequence file that exists so
// the binary runs both from the repo root and from cmd/.
func servicesPath() string {
	for _, p := range []string{"services.yaml", "../services.yaml"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "services.yaml"
}

func main() {
	// Load .env for local dev (ignored when absent)
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("../.env")
	}

	InitDB()

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence(servicesPath())
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}
}
