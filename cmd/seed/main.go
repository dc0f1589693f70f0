// Command seed fills the database with demo data.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"campusrent/internal/bootstrap"
	"campusrent/internal/config"
	"campusrent/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numListings := flag.Int("listings", 40, "Number of listings to create")
	numRentals := flag.Int("rentals", 60, "Number of rentals to create")
	fixtures := flag.String("fixtures", "", "Load a YAML fixture file instead of random data")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	randSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	var sum *seed.Summary
	if *fixtures != "" {
		fx, err := seed.LoadFixtures(*fixtures)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v", err)
		}
		sum, err = s.ApplyFixtures(ctx, fx)
		if err != nil {
			log.Fatalf("Fixture seeding failed: %v", err)
		}
	} else {
		sum, err = s.SeedDemo(ctx, seed.Options{
			NumUsers:    *numUsers,
			NumListings: *numListings,
			NumRentals:  *numRentals,
			Seed:        *randSeed,
		})
		if err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		log.Printf("All generated users have the password: %s", seed.DemoPassword)
	}

	log.Printf("Seeded %d users, %d listings, %d rentals, %d messages", sum.Users, sum.Listings, sum.Rentals, sum.Messages)
}
