package state

import (
	"fmt"

	"minihub/internal/domain"
)

// AddReview records a review and recomputes the product's rating over all of
// its reviews. One review per user and product is enforced by the caller via
// HasReviewed.
func (s *State) AddReview(productID string, rating int, comment string) (domain.Review, error) {
	if err := s.requireSession(); err != nil {
		return domain.Review{}, err
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return domain.Review{}, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}
	i := s.productIndex(productID)
	if i < 0 {
		return domain.Review{}, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	review := domain.Review{
		ID:        s.NewID(),
		ProductID: productID,
		UserID:    s.Session.User.ID,
		UserName:  s.Session.User.Name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.Now(),
	}
	s.Reviews = append(s.Reviews, review)

	reviews := s.ProductReviews(productID)
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	s.Products[i].Rating = float64(sum) / float64(len(reviews))
	s.Products[i].Reviews = reviews
	return review, nil
}

func (s *State) ProductReviews(productID string) []domain.Review {
	out := []domain.Review{}
	for _, r := range s.Reviews {
		if r.ProductID == productID {
			out = append(out, r)
		}
	}
	return out
}

// HasReviewed reports whether the session user already reviewed the product.
func (s *State) HasReviewed(productID string) bool {
	if !s.Session.Authenticated() {
		return false
	}
	for _, r := range s.Reviews {
		if r.ProductID == productID && r.UserID == s.Session.User.ID {
			return true
		}
	}
	return false
}
