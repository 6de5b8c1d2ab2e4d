package usecase

import (
	"context"
	"fmt"

	"minihub/internal/domain"
	"minihub/internal/state"
)

// AddReview lets a buyer review a product once.
func (m *Marketplace) AddReview(ctx context.Context, sess *state.Session, productID string, rating int, comment string) (domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.view(sess)
	if sess.Authenticated() {
		if sess.User.Role != domain.RoleBuyer {
			return domain.Review{}, m.fail(sess, "review", fmt.Errorf("only buyers can review products: %w", domain.ErrForbidden), "")
		}
		if s.HasReviewed(productID) {
			return domain.Review{}, m.fail(sess, "review", domain.ErrDuplicateReview, "")
		}
	}

	review, err := s.AddReview(productID, rating, comment)
	if err != nil {
		return domain.Review{}, m.fail(sess, "review", err, "")
	}

	m.persist(ctx, domain.SliceReviews, m.shared.Reviews)
	m.persist(ctx, domain.SliceProducts, m.shared.Products)
	m.log.Infof("Use Case: Review %s added to product %s by '%s'", review.ID, productID, review.UserName)
	m.succeed(sess, "Review added successfully!", domain.NotifySuccess)
	return review, nil
}

func (m *Marketplace) Reviews(productID string) ([]domain.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.view(nil)
	if _, err := s.Get(productID); err != nil {
		return nil, err
	}
	return s.ProductReviews(productID), nil
}
