package main

// Run database migrations:
//   go run ./cmd/migrate [up|down|status]

import (
	"context"
	"fmt"
	"log"
	"os"

	"contracts-backend/internal/shared/config"
	"contracts-backend/internal/shared/storage/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	opts := db.OptionsFromEnv(db.DefaultCLIOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	switch command {
	case "up":
		err = db.RunMigrations(ctx, sqlDB)
	case "down":
		err = db.RollbackMigration(ctx, sqlDB)
	case "status":
		var version int64
		version, err = db.MigrationVersion(ctx, sqlDB)
		if err == nil {
			fmt.Printf("schema version: %d\n", version)
		}
	default:
		log.Printf("unknown command %q (want up, down or status)", command)
		os.Exit(2)
	}
	if err != nil {
		log.Printf("migrate %s failed: %v", command, err)
		os.Exit(1)
	}
}
