package state

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"minihub/internal/domain"

	"github.com/shopspring/decimal"
)

// List returns the products matching filter in the requested order. Ties keep
// catalog order.
func (s *State) List(filter domain.ProductFilter) []domain.Product {
	term := strings.ToLower(strings.TrimSpace(filter.SearchTerm))
	out := make([]domain.Product, 0, len(s.Products))
	for _, p := range s.Products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if term != "" && !matchesTerm(p, term) {
			continue
		}
		if filter.MinPrice.Valid && p.Price.LessThan(filter.MinPrice.Decimal) {
			continue
		}
		if filter.MaxPrice.Valid && p.Price.GreaterThan(filter.MaxPrice.Decimal) {
			continue
		}
		out = append(out, p)
	}

	var less func(a, b domain.Product) bool
	switch filter.SortBy {
	case domain.SortOldest:
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case domain.SortPriceLow:
		less = func(a, b domain.Product) bool { return a.Price.LessThan(b.Price) }
	case domain.SortPriceHigh:
		less = func(a, b domain.Product) bool { return a.Price.GreaterThan(b.Price) }
	case domain.SortRating:
		less = func(a, b domain.Product) bool { return a.Rating > b.Rating }
	default:
		less = func(a, b domain.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func matchesTerm(p domain.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Title), term) || strings.Contains(strings.ToLower(p.Description), term) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

func (s *State) Get(productID string) (domain.Product, error) {
	i := s.productIndex(productID)
	if i < 0 {
		return domain.Product{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	return s.Products[i], nil
}

// Create lists a new product owned by the session user, who must be a seller.
func (s *State) Create(draft domain.ProductDraft) (domain.Product, error) {
	if err := s.requireSession(); err != nil {
		return domain.Product{}, err
	}
	if s.Session.User.Role != domain.RoleSeller {
		return domain.Product{}, fmt.Errorf("only sellers can list products: %w", domain.ErrForbidden)
	}

	verr := domain.NewValidationError()
	if strings.TrimSpace(draft.Title) == "" {
		verr.Add("title", "title is required")
	}
	if strings.TrimSpace(draft.Description) == "" {
		verr.Add("description", "description is required")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(draft.Price))
	switch {
	case err != nil:
		verr.Add("price", "price must be a number")
	case price.IsNegative():
		verr.Add("price", "price cannot be negative")
	}
	if draft.Category == "" {
		verr.Add("category", "category is required")
	} else if !domain.IsKnownCategory(draft.Category) {
		verr.Add("category", fmt.Sprintf("unknown category %q", draft.Category))
	}
	if err := verr.OrNil(); err != nil {
		return domain.Product{}, err
	}

	image := strings.TrimSpace(draft.Image)
	if image == "" {
		image = domain.PlaceholderImage
	}

	product := domain.Product{
		ID:          s.NewID(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Price:       price,
		Seller:      s.Session.User.Name,
		Category:    draft.Category,
		Image:       image,
		Inventory:   parseInventory(draft.Inventory),
		Reviews:     []domain.Review{},
		Tags:        ParseTags(draft.Tags),
		CreatedAt:   s.Now(),
	}
	s.Products = append(s.Products, product)
	return product, nil
}

// DecrementInventory lowers stock by amount, refusing to go below zero.
func (s *State) DecrementInventory(productID string, amount int) error {
	if amount < 0 {
		return fmt.Errorf("%w: amount cannot be negative", domain.ErrValidation)
	}
	i := s.productIndex(productID)
	if i < 0 {
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	p := &s.Products[i]
	if amount > p.Inventory {
		return &domain.InventoryError{ProductID: p.ID, Title: p.Title, Requested: amount, Available: p.Inventory}
	}
	p.Inventory -= amount
	return nil
}

// parseInventory falls back to 1 for missing, malformed or non-positive input.
func parseInventory(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// ParseTags splits a comma separated list, dropping blanks and repeats.
func ParseTags(raw string) []string {
	tags := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		tag := strings.TrimSpace(part)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
