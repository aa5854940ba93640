package main

import (
	"fmt"
	"os"

	"github.com/pratik-mahalle/lexaudit/internal/config"
	"github.com/pratik-mahalle/lexaudit/internal/repository/postgres"
	"github.com/pratik-mahalle/lexaudit/migrations"
)

func main() {
	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	switch command {
	case "up":
		applied, err := postgres.RunMigrations(db, migrations.Files)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed after %d applied: %v\n", applied, err)
			os.Exit(1)
		}
		if applied == 0 {
			fmt.Println("Database is up to date")
			return
		}
		fmt.Printf("Applied %d migration(s)\n", applied)

	case "status":
		status, err := postgres.MigrationStatus(db, migrations.Files)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read migration status: %v\n", err)
			os.Exit(1)
		}
		for _, m := range status {
			if m.Applied {
				fmt.Printf("  applied  %s  (%s)\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Printf("  pending  %s\n", m.Version)
			}
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q (want up or status)\n", command)
		os.Exit(2)
	}
}
