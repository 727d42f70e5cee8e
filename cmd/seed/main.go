package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/landrecords/demarcation-backend/internal/auth"
	"github.com/landrecords/demarcation-backend/internal/config"
	"github.com/landrecords/demarcation-backend/internal/db"
	"github.com/landrecords/demarcation-backend/internal/geo"
	"github.com/landrecords/demarcation-backend/internal/seeds"
)

var (
	seedPath    = flag.String("file", "", "Path to the YAML seed file")
	villagesCSV = flag.String("villages-csv", "", "Optional CSV of villages to add: circle_code,name,code")
	dsn         = flag.String("dsn", "", "Postgres DSN (default: DATABASE_URL)")
	dryRun      = flag.Bool("dry-run", false, "Parse + validate only; no DB writes")
)

func main() {
	flag.Parse()
	if *seedPath == "" && *villagesCSV == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dsn == "" {
		*dsn = cfg.DatabaseURL
	}

	var file seeds.File
	if *seedPath != "" {
		if file, err = seeds.Load(*seedPath); err != nil {
			log.Fatalf("seed file: %v", err)
		}
		fmt.Printf("Loaded %d districts and %d users from %s\n", len(file.Districts), len(file.Users), *seedPath)
	}
	var villages []seeds.VillageRow
	if *villagesCSV != "" {
		f, err := os.Open(*villagesCSV)
		if err != nil {
			log.Fatalf("villages CSV: %v", err)
		}
		villages, err = seeds.ReadVillagesCSV(f)
		f.Close()
		if err != nil {
			log.Fatalf("villages CSV: %v", err)
		}
		fmt.Printf("Loaded %d villages from %s\n", len(villages), *villagesCSV)
	}
	if *dryRun {
		fmt.Println("Dry run complete. No changes made.")
		return
	}

	d, err := db.Connect(*dsn, db.Options{MaxOpenConns: 4})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := geo.Migrate(d); err != nil {
		log.Fatalf("migrate geo: %v", err)
	}
	if err := auth.Migrate(d); err != nil {
		log.Fatalf("migrate auth: %v", err)
	}

	ctx := context.Background()
	if *seedPath != "" {
		counts, err := seeds.SeedAll(ctx, d, file)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		fmt.Printf("Seeded districts=%d circles=%d villages=%d users=%d (skipped %d)\n",
			counts.Districts, counts.Circles, counts.Villages, counts.Users, counts.Skipped)
	}
	if len(villages) > 0 {
		counts, err := seeds.ImportVillages(ctx, d, villages)
		if err != nil {
			log.Fatalf("Village import failed: %v", err)
		}
		fmt.Printf("Imported villages=%d (skipped %d)\n", counts.Villages, counts.Skipped)
	}
}
