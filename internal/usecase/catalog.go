package usecase

import (
	"context"

	"minihub/internal/domain"
	"minihub/internal/state"
)

func (m *Marketplace) Products(filter domain.ProductFilter) []domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view(nil).List(filter)
}

func (m *Marketplace) Product(productID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view(nil).Get(productID)
}

func (m *Marketplace) Categories() []domain.Category {
	return append([]domain.Category(nil), domain.Categories...)
}

func (m *Marketplace) CreateProduct(ctx context.Context, sess *state.Session, draft domain.ProductDraft) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.log.Infof("Use Case: Attempting to create product '%s'", draft.Title)
	product, err := m.view(sess).Create(draft)
	if err != nil {
		return domain.Product{}, m.fail(sess, "product creation", err, "")
	}

	m.persist(ctx, domain.SliceProducts, m.shared.Products)
	m.log.Infof("Use Case: Product created successfully with ID %s by seller '%s'", product.ID, product.Seller)
	m.succeed(sess, "Product created successfully!", domain.NotifySuccess)
	return product, nil
}

// DecrementInventory lowers stock outside any buyer flow, as the inventory
// RPC does. It returns the product with its new stock.
func (m *Marketplace) DecrementInventory(ctx context.Context, productID string, amount int) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.view(nil)
	if err := s.DecrementInventory(productID, amount); err != nil {
		m.log.Warnf("Use Case: Inventory decrement of %d for product %s rejected: %v", amount, productID, err)
		return domain.Product{}, err
	}
	m.persist(ctx, domain.SliceProducts, m.shared.Products)

	product, err := s.Get(productID)
	if err != nil {
		return domain.Product{}, err
	}
	m.log.Infof("Use Case: Inventory for product %s decreased by %d to %d", productID, amount, product.Inventory)
	return product, nil
}
