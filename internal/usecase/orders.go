package usecase

import (
	"context"
	"errors"
	"fmt"

	"minihub/internal/domain"
	"minihub/internal/state"
)

func (m *Marketplace) BuyNow(ctx context.Context, sess *state.Session, productID string, quantity int) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Use Case: Buy now of product %s (quantity %d)", productID, quantity)
	if err := m.checkPurchase(sess, productID); err != nil {
		return domain.Order{}, err
	}
	order, err := m.view(sess).BuyNow(productID, quantity)
	if err != nil {
		return domain.Order{}, m.fail(sess, "buy now", err, "")
	}

	m.persist(ctx, domain.SliceProducts, m.shared.Products)
	m.persist(ctx, domain.SliceOrders, m.shared.Orders)
	m.log.Infof("Use Case: Order %s placed for product %s by '%s'", order.ID, order.ProductID, order.BuyerName)
	m.succeed(sess, "Order placed successfully!", domain.NotifySuccess)
	return order, nil
}

// Checkout places one order per cart line or none at all.
func (m *Marketplace) Checkout(ctx context.Context, sess *state.Session) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Use Case: Starting checkout of %d cart lines", len(sess.Cart))
	orders, err := m.view(sess).Checkout()
	if err != nil {
		var inv *domain.InventoryError
		if errors.As(err, &inv) {
			return nil, m.fail(sess, "checkout", err, "Insufficient inventory for "+inv.Title)
		}
		return nil, m.fail(sess, "checkout", err, "")
	}

	m.persist(ctx, domain.SliceProducts, m.shared.Products)
	m.persist(ctx, domain.SliceOrders, m.shared.Orders)
	m.persistCart(ctx, sess)
	m.log.Infof("Use Case: Checkout placed %d orders for '%s'", len(orders), sess.User.Name)
	m.succeed(sess, "All orders placed successfully!", domain.NotifySuccess)
	return orders, nil
}

// checkPurchase only lets buyers purchase, and never their own listings.
// Anonymous sessions and unknown products fall through to the reducer.
func (m *Marketplace) checkPurchase(sess *state.Session, productID string) error {
	if !sess.Authenticated() {
		return nil
	}
	if sess.User.Role != domain.RoleBuyer {
		return m.fail(sess, "purchase of product "+productID,
			fmt.Errorf("only buyers can purchase products: %w", domain.ErrForbidden), "Only buyers can purchase products")
	}
	for _, p := range m.shared.Products {
		if p.ID == productID && p.Seller == sess.User.Name {
			return m.fail(sess, "purchase of product "+productID,
				fmt.Errorf("product %s is listed by %s: %w", productID, p.Seller, domain.ErrForbidden), "You cannot buy your own product")
		}
	}
	return nil
}

func (m *Marketplace) Orders(sess *state.Session) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view(sess).BuyerOrders()
}

func (m *Marketplace) SellerAnalytics(sess *state.Session) (domain.SellerAnalytics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view(sess).SellerAnalytics()
}
