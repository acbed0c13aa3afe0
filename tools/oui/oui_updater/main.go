package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/MrOplus/NetGuard/internal/adapters/fingerprint"
)

func main() {
	dbPath := flag.String("db", "oui.db", "Path to OUI database")
	source := flag.String("source", fingerprint.DefaultManufURL, "URL of the Wireshark manuf file")
	force := flag.Bool("force", false, "Force update even if recent")
	maxAge := flag.Duration("max-age", 7*24*time.Hour, "Skip the download when the registry is younger than this")
	lookup := flag.String("lookup", "", "After updating, print the vendor of this MAC address")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log.Printf("OUI Database Updater")
	log.Printf("Database: %s", *dbPath)
	log.Printf("Source: %s", *source)

	db, err := fingerprint.NewOUIDatabase(*dbPath, 1000, nil)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if stats, err := db.GetStats(ctx); err != nil {
		log.Printf("Warning: Could not get stats: %v", err)
	} else {
		log.Printf("Current database: %d entries, last updated %s", stats.TotalEntries, stats.LastUpdated.Format(time.RFC3339))
	}

	if *force || db.NeedsRefresh(ctx, *maxAge) {
		n, err := fingerprint.Refresh(ctx, db, fingerprint.NewManufSource(*source))
		if err != nil {
			log.Fatalf("Failed to refresh OUI data: %v", err)
		}
		log.Printf("Update complete: %d entries", n)
	} else {
		log.Printf("Database is recent (< %s). Use -force to update anyway.", *maxAge)
	}

	if *lookup != "" {
		mac, err := fingerprint.ParseMAC(*lookup)
		if err != nil {
			log.Fatalf("Invalid MAC %q: %v", *lookup, err)
		}
		vendor, err := db.LookupVendor(ctx, mac)
		if err != nil {
			log.Fatalf("Lookup failed: %v", err)
		}
		log.Printf("%s -> %s", mac, vendor)
	}
}
