package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"homefinder-client/internal/model"
	"homefinder-client/internal/repository"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type seedUser struct {
	username, email, first, last string
	role                         model.Role
}

var seedUsers = []seedUser{
	{"admin", "admin@homefinder.test", "Ada", "Admin", model.RoleAdmin},
	{"olga", "olga@homefinder.test", "Olga", "Owner", model.RoleUser},
	{"ben", "ben@homefinder.test", "Ben", "Buyer", model.RoleUser},
}

func seedListings(owner model.ID) []model.Listing {
	year := func(y int) *int { return &y }
	return []model.Listing{
		{
			Title: "Sunny family house", Description: "Four bedroom house with a large garden.",
			UserID: owner, Price: 425000, PropertyType: "house", Status: "for-sale",
			Location:   model.Location{Address: "12 Elm Street", City: "Springfield", State: "IL", ZipCode: "62701"},
			Features:   model.Features{Bedrooms: 4, Bathrooms: 2, Area: 2100, YearBuilt: year(1998)},
			Amenities:  []string{"garden", "garage"},
			Images:     []string{},
			IsFeatured: true,
		},
		{
			Title: "Downtown loft", Description: "Open plan loft close to the river.",
			UserID: owner, Price: 1850, PropertyType: "apartment", Status: "for-rent",
			Location:  model.Location{Address: "5 Water St", City: "Portland", State: "OR", ZipCode: "97201"},
			Features:  model.Features{Bedrooms: 1, Bathrooms: 1, Area: 780},
			Amenities: []string{"gym"},
			Images:    []string{},
		},
		{
			Title: "Corner retail unit", Description: "Ground floor unit on a busy corner.",
			UserID: owner, Price: 610000, PropertyType: "commercial", Status: "for-sale",
			Location:  model.Location{Address: "200 Main St", City: "Springfield", State: "IL", ZipCode: "62704"},
			Features:  model.Features{Area: 1500},
			Amenities: []string{},
			Images:    []string{},
		},
	}
}

// Seed fills empty repositories with demo accounts, listings and one
// inquiry with its chat.
func Seed(ctx context.Context, repos Repositories, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}

	ids := make(map[string]model.ID, len(seedUsers))
	for _, su := range seedUsers {
		rec := &repository.UserRecord{
			User: model.User{
				Username: su.username, Email: su.email, Role: su.role,
				FirstName: su.first, LastName: su.last,
			},
			PasswordHash: hash,
		}
		if err := repos.Users.Create(ctx, rec); err != nil {
			return fmt.Errorf("seed user %s: %w", su.username, err)
		}
		ids[su.username] = rec.ID
	}

	var first model.ID
	for _, l := range seedListings(ids["olga"]) {
		if err := repos.Listings.Create(ctx, &l); err != nil {
			return fmt.Errorf("seed listing %q: %w", l.Title, err)
		}
		if first == "" {
			first = l.ID
		}
	}

	inquiries := NewInquiryService(repos, logger)
	if _, err := inquiries.Create(ctx, Actor{ID: ids["ben"], Role: model.RoleUser}, model.InquiryInput{
		PropertyID: first,
		Name:       "Ben Buyer",
		Email:      "ben@homefinder.test",
		Message:    "Is the house still available?",
	}); err != nil {
		return fmt.Errorf("seed inquiry: %w", err)
	}

	logger.Info("demo data seeded", slog.Int("users", len(seedUsers)))
	return nil
}
