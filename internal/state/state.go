// Package state holds the marketplace application state and the reducer-style
// operations that mutate it. Every operation validates before it mutates, so a
// failed call leaves the state exactly as it was.
package state

import (
	"time"

	"minihub/internal/auth"
	"minihub/internal/domain"

	"github.com/google/uuid"
)

// Shared is the state every session sees: the user table, catalog, order
// ledger and review history.
type Shared struct {
	Users    []domain.User
	Products []domain.Product
	Orders   []domain.Order
	Reviews  []domain.Review
}

// Session is the per-visitor state. Key is empty for the local device
// session; Ephemeral sessions are never persisted.
type Session struct {
	Key       string
	Ephemeral bool
	User      *domain.User
	Cart      []domain.CartItem
	Wishlist  []domain.Product
}

func (s *Session) Authenticated() bool { return s != nil && s.User != nil }

// SellerLookup resolves the id of the user selling a product from the
// product's recorded seller string. Empty means unresolved.
type SellerLookup func(users []domain.User, seller string) string

// LookupSellerByName returns the first user whose display name equals seller.
// Two sellers sharing a display name resolve to whichever registered first.
func LookupSellerByName(users []domain.User, seller string) string {
	for _, u := range users {
		if u.Name == seller {
			return u.ID
		}
	}
	return ""
}

// State is the view one action operates on.
type State struct {
	*Shared
	*Session

	Passwords    auth.PasswordHasher
	LookupSeller SellerLookup
	Now          func() time.Time
	NewID        func() string
}

func New(shared *Shared, session *Session) *State {
	return &State{
		Shared:       shared,
		Session:      session,
		Passwords:    auth.PlainPasswords{},
		LookupSeller: LookupSellerByName,
		Now:          time.Now,
		NewID:        uuid.NewString,
	}
}

func (s *State) requireSession() error {
	if !s.Session.Authenticated() {
		return domain.ErrNotAuthenticated
	}
	return nil
}

func (s *State) productIndex(id string) int {
	for i := range s.Products {
		if s.Products[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *State) userIndex(id string) int {
	for i := range s.Users {
		if s.Users[i].ID == id {
			return i
		}
	}
	return -1
}
