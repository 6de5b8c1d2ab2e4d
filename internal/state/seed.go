package state

import (
	"time"

	"minihub/internal/auth"
	"minihub/internal/domain"

	"github.com/shopspring/decimal"
)

// DemoAccount is the seeded administrator. The username and password come
// from configuration.
type DemoAccount struct {
	Username string
	Password string
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

// SeedShared builds the state a fresh install starts with: the demo seller
// and four catalog entries.
func SeedShared(demo DemoAccount, passwords auth.PasswordHasher) (*Shared, error) {
	stored, err := passwords.Hash(demo.Password)
	if err != nil {
		return nil, err
	}
	admin := domain.User{
		ID:       "1",
		Username: demo.Username,
		Password: stored,
		Name:     "Admin User",
		Email:    "admin@minihub.com",
		Role:     domain.RoleSeller,
		Avatar:   "https://www.google.com/favicon.ico",
		Bio:      "Marketplace administrator and seller",
		JoinDate: day(2024, time.January, 1),
		Rating:   domain.DefaultUserRating,
	}
	return &Shared{
		Users:    []domain.User{admin},
		Products: SeedProducts(),
		Orders:   []domain.Order{},
		Reviews:  []domain.Review{},
	}, nil
}

func SeedProducts() []domain.Product {
	return []domain.Product{
		{
			ID:          "1",
			Title:       "Logo Design Pack",
			Description: "Professional logo designs for business",
			Price:       decimal.NewFromInt(25),
			Seller:      "John Doe",
			Category:    "Digital Art",
			Image:       "https://upload.wikimedia.org/wikipedia/commons/thumb/4/40/Adobe_Premiere_Pro_CC_icon.svg/240px-Adobe_Premiere_Pro_CC_icon.svg.png",
			Inventory:   10,
			Rating:      4.5,
			Reviews:     []domain.Review{},
			Tags:        []string{"logo", "design", "business"},
			CreatedAt:   day(2024, time.January, 15),
		},
		{
			ID:          "2",
			Title:       "Website Template",
			Description: "Modern responsive website template",
			Price:       decimal.NewFromInt(45),
			Seller:      "Jane Smith",
			Category:    "Software",
			Image:       "https://upload.wikimedia.org/wikipedia/commons/thumb/6/61/HTML5_logo_and_wordmark.svg/240px-HTML5_logo_and_wordmark.svg.png",
			Inventory:   5,
			Rating:      4.8,
			Reviews:     []domain.Review{},
			Tags:        []string{"website", "template", "responsive"},
			CreatedAt:   day(2024, time.January, 10),
		},
		{
			ID:          "3",
			Title:       "Python Guide",
			Description: "Complete Python programming guide",
			Price:       decimal.RequireFromString("19.99"),
			Seller:      "Mike Johnson",
			Category:    "E-books",
			Image:       "https://upload.wikimedia.org/wikipedia/commons/thumb/c/c3/Python-logo-notext.svg/240px-Python-logo-notext.svg.png",
			Inventory:   100,
			Rating:      4.2,
			Reviews:     []domain.Review{},
			Tags:        []string{"python", "programming", "guide"},
			CreatedAt:   day(2024, time.January, 5),
		},
		{
			ID:          "4",
			Title:       "Mobile App UI Kit",
			Description: "Complete UI kit for mobile apps",
			Price:       decimal.NewFromInt(35),
			Seller:      "Sarah Wilson",
			Category:    "Digital Art",
			Image:       "https://upload.wikimedia.org/wikipedia/commons/thumb/d/d7/Android_robot.svg/240px-Android_robot.svg.png",
			Inventory:   8,
			Rating:      4.7,
			Reviews:     []domain.Review{},
			Tags:        []string{"mobile", "ui", "app"},
			CreatedAt:   day(2024, time.January, 20),
		},
	}
}
