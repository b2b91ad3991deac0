package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"

	"egas-delivery/internal/config"
	"egas-delivery/internal/infra/db/migrations"
	"egas-delivery/internal/infra/logging"
)

// Usage: migrate [-config config.yaml] up|down|status|version|redo
func main() {
	cfg, err := config.FromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	command := "up"
	var args []string
	if flag.NArg() > 0 {
		command = flag.Arg(0)
		args = flag.Args()[1:]
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := migrations.Run(ctx, db, command, args...); err != nil {
		logger.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}
	logger.Info().Str("command", command).Msg("migration complete")
}
