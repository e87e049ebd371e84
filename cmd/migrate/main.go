package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/zimroute/internal/pkg/config"
)

var upFiles = []string{
	"migrations/001_init_extensions.sql",
	"migrations/002_saved_routes.sql",
	"migrations/003_saved_routes_anonymize.sql",
}

// Schema objects dropped by "down", in reverse creation order. Extensions are left in place.
var downStatements = []string{
	"DROP TABLE IF EXISTS saved_routes",
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("zimroute-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	switch os.Args[1] {
	case "up":
		runMigrations(ctx, pool)
	case "down":
		rollback(ctx, pool)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) {
	for _, f := range upFiles {
		data, err := os.ReadFile(f)
		if err != nil {
			log.Fatalf("read %s: %v", f, err)
		}

		if _, err := pool.Exec(ctx, string(data)); err != nil {
			log.Fatalf("exec %s: %v", f, err)
		}

		fmt.Printf("OK  %s\n", f)
	}

	log.Println("all migrations applied")
}

func rollback(ctx context.Context, pool *pgxpool.Pool) {
	for _, stmt := range downStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("exec %q: %v", stmt, err)
		}
		fmt.Printf("OK  %s\n", stmt)
	}
	log.Println("rollback complete")
}
