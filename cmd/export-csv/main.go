package main

import (
	"context"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"watchvault/internal/catalog"
	"watchvault/pkg/database"
	"watchvault/pkg/utils"
)

func main() {
	var (
		out = flag.String("out", "data/watches.csv", "output CSV path for the catalog")
	)
	flag.Parse()

	utils.LoadEnvFile()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportWatches(ctx, catalog.NewRepo(db), *out); err != nil {
		log.Fatalf("export watches failed: %v", err)
	}

	log.Printf("✅ exported catalog to %s", *out)
}

func exportWatches(ctx context.Context, repo *catalog.Repo, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"id", "external_id", "slug", "brand", "model", "reference", "year",
		"condition", "price", "status", "visibility", "box_and_papers",
		"featured", "tags", "image_count", "created_at",
	}); err != nil {
		return err
	}

	watches, err := repo.All(ctx)
	if err != nil {
		return err
	}

	for _, wa := range watches {
		if err := w.Write([]string{
			wa.ID,
			wa.ExternalID,
			wa.Slug,
			wa.Brand,
			wa.Model,
			wa.Reference,
			strconv.Itoa(wa.Year),
			wa.Condition,
			wa.Price.String(),
			wa.Status,
			wa.Visibility,
			strconv.FormatBool(wa.BoxAndPapers),
			strconv.FormatBool(wa.Featured),
			strings.Join(wa.Tags, "|"),
			strconv.Itoa(len(wa.Images)),
			wa.CreatedAt.Format(time.RFC3339),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
