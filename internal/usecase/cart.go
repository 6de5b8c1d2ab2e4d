package usecase

import (
	"context"

	"minihub/internal/domain"
	"minihub/internal/state"

	"github.com/shopspring/decimal"
)

func (m *Marketplace) Cart(sess *state.Session) ([]domain.CartItem, decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem{}, sess.Cart...), m.view(sess).CartTotal()
}

func (m *Marketplace) Wishlist(sess *state.Session) []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Product{}, sess.Wishlist...)
}

func (m *Marketplace) AddToCart(ctx context.Context, sess *state.Session, productID string) (domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkPurchase(sess, productID); err != nil {
		return domain.CartItem{}, err
	}
	item, err := m.view(sess).AddToCart(productID)
	if err != nil {
		return domain.CartItem{}, m.fail(sess, "add to cart of product "+productID, err, "")
	}

	m.persistCart(ctx, sess)
	m.log.Infof("Use Case: Product %s added to cart", productID)
	m.succeed(sess, "Added to cart!", domain.NotifySuccess)
	return item, nil
}

// SetQuantity changes a cart line; a quantity of zero or less removes it.
func (m *Marketplace) SetQuantity(ctx context.Context, sess *state.Session, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.view(sess).SetQuantity(productID, qty); err != nil {
		return m.fail(sess, "cart update of product "+productID, err, "")
	}

	m.persistCart(ctx, sess)
	if qty <= 0 {
		m.log.Infof("Use Case: Product %s removed from cart", productID)
		m.succeed(sess, "Removed from cart", domain.NotifyInfo)
		return nil
	}
	m.log.Infof("Use Case: Cart quantity for product %s set to %d", productID, qty)
	return nil
}

func (m *Marketplace) RemoveFromCart(ctx context.Context, sess *state.Session, productID string) error {
	return m.SetQuantity(ctx, sess, productID, 0)
}

// ToggleWishlist reports whether the product is on the wishlist afterwards.
func (m *Marketplace) ToggleWishlist(ctx context.Context, sess *state.Session, productID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	added, err := m.view(sess).ToggleWishlist(productID)
	if err != nil {
		return false, m.fail(sess, "wishlist toggle of product "+productID, err, "")
	}

	m.persistWishlist(ctx, sess)
	if added {
		m.succeed(sess, "Added to wishlist!", domain.NotifySuccess)
	} else {
		m.succeed(sess, "Removed from wishlist", domain.NotifyInfo)
	}
	return added, nil
}
