package main

import (
	"context"
	"flag"
	"log"
	"time"

	"watchvault/internal/backfill"
	"watchvault/internal/catalog"
	"watchvault/internal/images"
	"watchvault/pkg/database"
	"watchvault/pkg/utils"
)

func main() {
	var (
		records = flag.Bool("records", false, "re-normalize brand, condition, and tags on every record")
		migrate = flag.Bool("images", false, "download remaining external image URLs into local storage")
		timeout = flag.Duration("timeout", 30*time.Minute, "overall run timeout")
	)
	flag.Parse()

	if !*records && !*migrate {
		log.Fatal("nothing to do: pass -records and/or -images")
	}

	utils.LoadEnvFile()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	store := images.NewStore(db)
	runner := backfill.NewRunner(
		catalog.NewRepo(db),
		images.NewIngestor(store, utils.LoadIngestConfig()),
	)

	if *records {
		sum, err := runner.Records(ctx)
		if err != nil {
			log.Fatalf("record backfill failed: %v", err)
		}
		log.Printf("✅ records: %d updated, %d skipped, %d failed", sum.Updated, sum.Skipped, sum.Failed)
	}

	if *migrate {
		sum, err := runner.Migrate(ctx)
		if err != nil {
			log.Fatalf("image backfill failed: %v", err)
		}
		log.Printf("✅ images: %d updated, %d skipped, %d failed", sum.Updated, sum.Skipped, sum.Failed)
	}
}
