package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blackbox-chat/blackbox-backend/internal/config"
	"github.com/blackbox-chat/blackbox-backend/internal/database"
	"github.com/blackbox-chat/blackbox-backend/internal/migration"
	"gorm.io/gorm"
)

// Maintenance targets
const (
	targetMigrate        = "migrate"
	targetVerify         = "verify"
	targetPruneExpired   = "prune-expired"
	targetRepairContacts = "repair-contacts"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "configs/config.local.yaml", "config file path")
	target := flag.String("target", targetMigrate, "comma separated: migrate, verify, prune-expired, repair-contacts")
	seed := flag.Bool("seed", false, "seed the admin account from config when profiles is empty")
	verbose := flag.Bool("verbose", false, "verbose SQL logging")
	flag.Parse()

	if loaded := config.LoadDotEnv(); len(loaded) == 0 {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *verbose {
		cfg.Database.LogQueries = true
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying DB: %v", err)
	}
	defer sqlDB.Close()

	start := time.Now()
	healthy := true
	for _, t := range strings.Split(*target, ",") {
		t = strings.TrimSpace(t)
		log.Printf("[maintenance] Starting: %s", t)
		tStart := time.Now()

		switch t {
		case targetMigrate:
			err = runMigrate(db, cfg, *seed)
		case targetVerify:
			healthy, err = runVerify(db)
		case targetPruneExpired:
			var n int64
			n, err = migration.PruneExpired(db, time.Now())
			if err == nil {
				log.Printf("[prune-expired] Deleted %d expired messages", n)
			}
		case targetRepairContacts:
			var n int64
			n, err = migration.RepairContacts(db)
			if err == nil {
				log.Printf("[repair-contacts] Completed %d one-sided contacts", n)
			}
		default:
			log.Printf("[maintenance] Unknown target: %s", t)
			continue
		}

		if err != nil {
			log.Printf("[maintenance] FAILED %s: %v", t, err)
			os.Exit(1)
		}
		log.Printf("[maintenance] Completed %s in %v", t, time.Since(tStart))
	}

	log.Printf("[maintenance] All targets completed in %v", time.Since(start))
	if !healthy {
		os.Exit(1)
	}
}

func runMigrate(db *gorm.DB, cfg *config.Config, seed bool) error {
	if err := migration.Run(db); err != nil {
		return err
	}
	if !seed {
		return nil
	}
	created, err := migration.SeedAdmin(db, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Printf("[migrate] Seeded admin user %q", cfg.Seed.AdminUsername)
	} else {
		log.Println("[migrate] Admin seed skipped (profiles not empty or no credentials)")
	}
	return nil
}

func runVerify(db *gorm.DB) (bool, error) {
	r, err := migration.Verify(db, time.Now())
	if err != nil {
		return false, err
	}

	rows := []struct {
		label string
		count int64
		check bool
	}{
		{"profiles", r.Profiles, false},
		{"messages", r.Messages, false},
		{"contacts", r.Contacts, false},
		{"orphan msgs", r.OrphanMessages, true},
		{"one-sided", r.OneSidedContacts, true},
		{"dangling rep", r.DanglingReplies, true},
		{"expired", r.ExpiredMessages, false},
	}

	fmt.Println()
	fmt.Println("╔══════════════╦══════════════╦═══════╗")
	fmt.Println("║ Check        ║        Count ║  OK   ║")
	fmt.Println("╠══════════════╬══════════════╬═══════╣")
	for _, row := range rows {
		mark := " "
		if row.check {
			mark = "✓"
			if row.count > 0 {
				mark = "✗"
			}
		}
		fmt.Printf("║ %-12s ║ %12d ║   %s   ║\n", row.label, row.count, mark)
	}
	fmt.Println("╚══════════════╩══════════════╩═══════╝")
	fmt.Println()

	return r.Healthy(), nil
}
