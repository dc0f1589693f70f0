package seed

import (
	"fmt"
	"io"
	"os"

	"campusrent/internal/models"

	"gopkg.in/yaml.v3"
)

// Fixtures is a hand-written data set, typically loaded from YAML:
//
//	users:
//	  - {email: ana@campus.edu, name: Ana, password: secret}
//	listings:
//	  - {owner: ana@campus.edu, title: Bike, price_per_day: 5}
//	rentals:
//	  - {listing: Bike, rentee: ben@campus.edu, start_date: 2024-06-01, end_date: 2024-06-03, actions: [approve]}
//	messages:
//	  - {rental: 0, from: ben@campus.edu, to: ana@campus.edu, text: Hi!}
type Fixtures struct {
	Users    []UserFixture    `yaml:"users"`
	Listings []ListingFixture `yaml:"listings"`
	Rentals  []RentalFixture  `yaml:"rentals"`
	Messages []MessageFixture `yaml:"messages"`
}

type UserFixture struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

type ListingFixture struct {
	Owner       string  `yaml:"owner"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	PricePerDay float64 `yaml:"price_per_day"`
}

// RentalFixture requests Listing (by title) for Rentee (by email) and then applies
// Actions in order, each performed by the listing owner.
type RentalFixture struct {
	Listing   string   `yaml:"listing"`
	Rentee    string   `yaml:"rentee"`
	StartDate string   `yaml:"start_date"`
	EndDate   string   `yaml:"end_date"`
	Actions   []string `yaml:"actions"`
}

// MessageFixture refers to its rental by position in the rentals list.
type MessageFixture struct {
	Rental int    `yaml:"rental"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Text   string `yaml:"text"`
}

// ParseFixtures decodes YAML fixtures and checks that every action is known.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	var fx Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	for i, rf := range fx.Rentals {
		for _, a := range rf.Actions {
			if models.RentalAction(a).Target() == "" {
				return nil, fmt.Errorf("rental %d: unknown action %q", i, a)
			}
		}
	}
	for i, m := range fx.Messages {
		if m.Rental < 0 || m.Rental >= len(fx.Rentals) {
			return nil, fmt.Errorf("message %d: rental index %d out of range", i, m.Rental)
		}
	}
	return &fx, nil
}

// LoadFixtures reads fixtures from a YAML file.
func LoadFixtures(path string) (*Fixtures, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ParseFixtures(f)
}
