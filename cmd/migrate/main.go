package main

import (
	"context"
	"log"
	"os"

	"github.com/samirrijal/firewatch/internal/adapters/postgres"
	"github.com/samirrijal/firewatch/internal/pkg/config"
	"github.com/samirrijal/firewatch/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("firewatch-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("firewatch-migrate", cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err = postgres.Migrate(ctx, db)
	case "down":
		err = postgres.Drop(ctx, db)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
	log.Printf("migrate %s complete", os.Args[1])
}
