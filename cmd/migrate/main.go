// Command migrate applies or rolls back the Postgres schema.
//
//	migrate up | down | to <version> | version
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"etickets/internal/config"
	"etickets/internal/database/migrations"
	"etickets/internal/logger"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: migrate up | down | to <version> | version")
	os.Exit(2)
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger := logger.NewLogger(cfg.LogDir)
	defer logger.Close()

	if len(os.Args) < 2 {
		usage()
	}
	if cfg.Database.Driver != "postgres" {
		logger.Fatal("MIGRATE", fmt.Sprintf("DB_DRIVER is %q; versioned migrations only run against postgres", cfg.Database.Driver))
	}

	runner := migrations.NewRunner(cfg.Database.URL)
	defer runner.Close()

	var err error
	switch os.Args[1] {
	case "up":
		err = runner.Up()
	case "down":
		err = runner.Down()
	case "to":
		if len(os.Args) < 3 {
			usage()
		}
		version, parseErr := strconv.ParseUint(os.Args[2], 10, 32)
		if parseErr != nil {
			logger.Fatal("MIGRATE", fmt.Sprintf("Invalid version %q", os.Args[2]))
		}
		err = runner.To(uint(version))
	case "version":
	default:
		usage()
	}
	if err != nil {
		logger.Fatal("MIGRATE", err.Error())
	}

	version, dirty, err := runner.Version()
	if err != nil {
		logger.Fatal("MIGRATE", err.Error())
	}
	logger.Info("MIGRATE", fmt.Sprintf("Schema version %d (dirty: %t)", version, dirty))
}
