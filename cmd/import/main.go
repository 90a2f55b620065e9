// Command import loads legacy CSV exports into the Postgres ledger.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/suyash01/zawadi/internal/config"
	"github.com/suyash01/zawadi/internal/database"
	"github.com/suyash01/zawadi/internal/importer"
	"github.com/suyash01/zawadi/internal/store"
	"github.com/suyash01/zawadi/migrations"
)

func main() {
	dir := flag.String("dir", "data", "directory holding rates.csv, contributions.csv, expenses.csv and special.csv")
	cfgPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := database.RunMigrations(db, migrations.FS); err != nil {
		log.Fatal(err)
	}

	results, err := importer.New(store.NewPostgres(db)).ImportDir(ctx, *dir)
	for _, res := range results {
		log.Printf("%s: imported %d rows, skipped %d", res.File, res.Rows, res.Skipped)
	}
	if err != nil {
		log.Fatal(err)
	}
	if len(results) == 0 {
		log.Printf("no legacy files found in %s", *dir)
	}
}
