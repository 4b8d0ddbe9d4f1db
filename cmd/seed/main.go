// Command main runs the database seeder for Freebies.
package main

import (
	"flag"
	"log"

	"freebies/internal/config"
	"freebies/internal/database"
	"freebies/internal/geo"
	"freebies/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build data without writing to the database")
	radius := flag.Float64("radius", 5, "Radius in km around the center where posts are placed")
	maxDays := flag.Int("days", 30, "Spread created_at over this many past days")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = time based)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v, dry-run=%v\n", *numUsers, *numPosts, *shouldClean, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		DryRun:   *dryRun,
		MaxDays:  *maxDays,
		Center:   geo.Point{Lat: cfg.SeedCenterLat, Lon: cfg.SeedCenterLon},
		RadiusKm: *radius,
		RandSeed: *randSeed,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	summary, err := s.Seed(*numUsers, *numPosts)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✓ %d users, %d posts", summary.Users, summary.Posts)
	log.Printf("✓ %d likes, %d got-its, %d follows, %d comments", summary.Likes, summary.GotIts, summary.Follows, summary.Comments)
	log.Printf("✓ %d inbox messages", summary.Messages)
	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DefaultPassword)
}
