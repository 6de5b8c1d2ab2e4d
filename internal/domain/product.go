package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PlaceholderImage = "https://upload.wikimedia.org/wikipedia/commons/thumb/a/ac/No_image_available.svg/240px-No_image_available.svg.png"

type Product struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Seller      string          `json:"seller"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Inventory   int             `json:"inventory"`
	Rating      float64         `json:"rating"`
	Reviews     []Review        `json:"reviews"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProductDraft is the seller-submitted form. Price and inventory arrive as text
// and are parsed leniently.
type ProductDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Inventory   string `json:"inventory"`
	Image       string `json:"image"`
	Tags        string `json:"tags"`
}

type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
)

type ProductFilter struct {
	Category   string
	SearchTerm string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal
	SortBy     SortOrder
}

type Category struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var Categories = []Category{
	{Name: "Digital Art", Description: "Digital artwork and designs"},
	{Name: "Software", Description: "Software and applications"},
	{Name: "E-books", Description: "Digital books and guides"},
	{Name: "Graphics", Description: "Graphics and illustrations"},
	{Name: "Templates", Description: "Ready-made templates"},
}

func IsKnownCategory(name string) bool {
	for _, c := range Categories {
		if c.Name == name {
			return true
		}
	}
	return false
}
