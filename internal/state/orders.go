package state

import (
	"fmt"

	"minihub/internal/domain"

	"github.com/shopspring/decimal"
)

// BuyNow orders quantity units of a single product, bypassing the cart.
func (s *State) BuyNow(productID string, quantity int) (domain.Order, error) {
	if err := s.requireSession(); err != nil {
		return domain.Order{}, err
	}
	if quantity < 1 {
		return domain.Order{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}
	i := s.productIndex(productID)
	if i < 0 {
		return domain.Order{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	product := s.Products[i]
	if err := s.DecrementInventory(productID, quantity); err != nil {
		return domain.Order{}, err
	}

	order := s.newOrder(product, quantity)
	s.Orders = append(s.Orders, order)
	return order, nil
}

// Checkout turns every cart line into an order. All lines are checked against
// live stock first; if one falls short nothing is changed and the error names
// the first such line.
func (s *State) Checkout() ([]domain.Order, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	if len(s.Cart) == 0 {
		return nil, domain.ErrEmptyCart
	}

	live := make([]int, len(s.Cart))
	for n, item := range s.Cart {
		i := s.productIndex(item.Product.ID)
		if i < 0 {
			return nil, fmt.Errorf("product %s (%s): %w", item.Product.ID, item.Product.Title, domain.ErrNotFound)
		}
		if s.Products[i].Inventory < item.Quantity {
			return nil, &domain.InventoryError{
				ProductID: item.Product.ID,
				Title:     item.Product.Title,
				Requested: item.Quantity,
				Available: s.Products[i].Inventory,
			}
		}
		live[n] = i
	}

	orders := make([]domain.Order, 0, len(s.Cart))
	for n, item := range s.Cart {
		product := s.Products[live[n]]
		s.Products[live[n]].Inventory -= item.Quantity
		orders = append(orders, s.newOrder(product, item.Quantity))
	}
	s.Orders = append(s.Orders, orders...)
	s.Cart = nil
	return orders, nil
}

// BuyerOrders lists the orders placed under the session user's name.
func (s *State) BuyerOrders() ([]domain.Order, error) {
	if err := s.requireSession(); err != nil {
		return nil, err
	}
	out := []domain.Order{}
	for _, o := range s.Orders {
		if o.BuyerName == s.Session.User.Name {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *State) newOrder(product domain.Product, quantity int) domain.Order {
	return domain.Order{
		ID:           s.NewID(),
		ProductID:    product.ID,
		ProductTitle: product.Title,
		Quantity:     quantity,
		TotalPrice:   product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Status:       domain.StatusCompleted,
		CreatedAt:    s.Now(),
		BuyerName:    s.Session.User.Name,
		SellerID:     s.LookupSeller(s.Users, product.Seller),
	}
}
