package state

import (
	"fmt"

	"minihub/internal/domain"

	"github.com/shopspring/decimal"
)

// AddToCart puts one unit of the product in the cart. A product can only be
// added once; later changes go through SetQuantity.
func (s *State) AddToCart(productID string) (domain.CartItem, error) {
	if err := s.requireSession(); err != nil {
		return domain.CartItem{}, err
	}
	product, err := s.Get(productID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if product.Inventory <= 0 {
		return domain.CartItem{}, fmt.Errorf("%s: %w", product.Title, domain.ErrOutOfStock)
	}
	if s.cartIndex(productID) >= 0 {
		return domain.CartItem{}, fmt.Errorf("%s: %w", product.Title, domain.ErrAlreadyInCart)
	}

	item := domain.CartItem{Product: product, Quantity: 1}
	s.Cart = append(s.Cart, item)
	return item, nil
}

// SetQuantity overwrites the quantity of a cart line; zero or less removes
// it. Stock is checked at checkout, not here.
func (s *State) SetQuantity(productID string, qty int) error {
	i := s.cartIndex(productID)
	if i < 0 {
		return fmt.Errorf("cart item %s: %w", productID, domain.ErrNotFound)
	}
	if qty <= 0 {
		s.Cart = append(s.Cart[:i:i], s.Cart[i+1:]...)
		return nil
	}
	s.Cart[i].Quantity = qty
	return nil
}

func (s *State) RemoveFromCart(productID string) error {
	return s.SetQuantity(productID, 0)
}

// ToggleWishlist adds the product when absent and removes it when present.
// It reports whether the product ended up on the wishlist.
func (s *State) ToggleWishlist(productID string) (bool, error) {
	if err := s.requireSession(); err != nil {
		return false, err
	}
	for i, p := range s.Wishlist {
		if p.ID == productID {
			s.Wishlist = append(s.Wishlist[:i:i], s.Wishlist[i+1:]...)
			return false, nil
		}
	}
	product, err := s.Get(productID)
	if err != nil {
		return false, err
	}
	s.Wishlist = append(s.Wishlist, product)
	return true, nil
}

// CartTotal is the sum of line subtotals at the snapshot prices.
func (s *State) CartTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Cart {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (s *State) cartIndex(productID string) int {
	for i, item := range s.Cart {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}
