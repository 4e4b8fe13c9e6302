package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"watchvault/internal/catalog"
	"watchvault/internal/images"
	"watchvault/internal/importer"
	"watchvault/pkg/database"
	"watchvault/pkg/utils"
)

func main() {
	var (
		in            = flag.String("in", "data/listings.json", "input JSON path (array or {items:[...]} export)")
		status        = flag.String("status", "", "force status on every imported listing (Available|Pending|Sold)")
		visibility    = flag.String("visibility", "", "force visibility on every imported listing (Public|Private)")
		featured      = flag.String("featured", "", "force featured flag: true or false")
		refreshImages = flag.Bool("refresh-images", false, "download and store listing images")
		timeout       = flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	)
	flag.Parse()

	utils.LoadEnvFile()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("read %s: %v", *in, err)
	}

	entries, err := importer.ParseListings(data)
	if err != nil {
		log.Fatalf("parse %s: %v", *in, err)
	}
	if len(entries) == 0 {
		log.Fatalf("no listings found in %s", *in)
	}

	opts := importer.Options{
		ForceStatus:     *status,
		ForceVisibility: *visibility,
		RefreshImages:   *refreshImages,
	}
	switch *featured {
	case "":
	case "true", "false":
		f := *featured == "true"
		opts.ForceFeatured = &f
	default:
		log.Fatalf("-featured must be true or false, got %q", *featured)
	}

	catalogRepo := catalog.NewRepo(db)
	imp := importer.New(catalogRepo, images.NewIngestor(images.NewStore(db), utils.LoadIngestConfig()))

	summary, err := imp.Run(ctx, entries, opts)
	if err != nil {
		log.Fatalf("import failed after %d created, %d updated: %v", summary.Created, summary.Updated, err)
	}

	for _, d := range summary.Diagnostics {
		log.Printf("  ! %s: %s", d.ExternalID, d.Message)
	}
	log.Printf("✅ Import complete: %d created, %d updated, %d skipped", summary.Created, summary.Updated, summary.Skipped)
}
