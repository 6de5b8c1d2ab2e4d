package state

import (
	"fmt"
	"sort"

	"minihub/internal/domain"

	"github.com/shopspring/decimal"
)

// SellerAnalytics summarises the session seller's listings and the orders
// attributed to them. Rows are sorted by revenue, highest first.
func (s *State) SellerAnalytics() (domain.SellerAnalytics, error) {
	if err := s.requireSession(); err != nil {
		return domain.SellerAnalytics{}, err
	}
	seller := s.Session.User
	if seller.Role != domain.RoleSeller {
		return domain.SellerAnalytics{}, fmt.Errorf("analytics are for sellers: %w", domain.ErrForbidden)
	}

	var sold []domain.Order
	for _, o := range s.Orders {
		if o.SellerID != "" && o.SellerID == seller.ID {
			sold = append(sold, o)
		}
	}

	result := domain.SellerAnalytics{
		TotalRevenue: decimal.Zero,
		OrderCount:   len(sold),
		Products:     []domain.ProductStats{},
	}
	for _, o := range sold {
		result.TotalRevenue = result.TotalRevenue.Add(o.TotalPrice)
	}
	for _, p := range s.Products {
		if p.Seller != seller.Name {
			continue
		}
		row := domain.ProductStats{Product: p, Revenue: decimal.Zero}
		for _, o := range sold {
			if o.ProductID != p.ID {
				continue
			}
			row.Revenue = row.Revenue.Add(o.TotalPrice)
			row.UnitsSold += o.Quantity
			row.Orders++
		}
		result.Products = append(result.Products, row)
	}
	result.ProductCount = len(result.Products)
	sort.SliceStable(result.Products, func(i, j int) bool {
		return result.Products[i].Revenue.GreaterThan(result.Products[j].Revenue)
	})
	return result, nil
}
