package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"minihub/internal/auth"
	"minihub/internal/domain"
	"minihub/internal/state"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SliceStore persists named state slices. Load reports whether dst was filled.
type SliceStore interface {
	Load(ctx context.Context, key string, dst interface{}) bool
	Save(ctx context.Context, key string, v interface{}) error
	Remove(ctx context.Context, key string) error
}

type Notifier interface {
	Notify(message string, typ domain.NotificationType) domain.Notification
	Dismiss(id string) bool
	Active() []domain.Notification
}

type Options struct {
	// SessionNotes returns the notifier of one API user session. When nil,
	// every session shares the notifier given to NewMarketplace.
	SessionNotes func(sessionKey string) Notifier

	Passwords auth.PasswordHasher
	Demo      state.DemoAccount
	Lookup    state.SellerLookup
	Now       func() time.Time
	NewID     func() string
}

// Marketplace runs every state action one at a time: reducer, then
// persistence of the slices it touched, then the user-facing notification.
type Marketplace struct {
	mu       sync.Mutex
	shared   *state.Shared
	local    *state.Session
	sessions map[string]*state.Session

	store        SliceStore
	notes        Notifier
	sessionNotes func(sessionKey string) Notifier
	passwords    auth.PasswordHasher
	lookup       state.SellerLookup
	now          func() time.Time
	newID        func() string
	log          *logrus.Logger
}

// NewMarketplace seeds the default state and overlays whatever the store
// holds. Unreadable slices fall back to the seeded defaults.
func NewMarketplace(ctx context.Context, store SliceStore, notes Notifier, opts Options, logger *logrus.Logger) (*Marketplace, error) {
	if opts.Passwords == nil {
		opts.Passwords = auth.PlainPasswords{}
	}
	if opts.Lookup == nil {
		opts.Lookup = state.LookupSellerByName
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}

	shared, err := state.SeedShared(opts.Demo, opts.Passwords)
	if err != nil {
		return nil, fmt.Errorf("could not seed marketplace: %w", err)
	}

	m := &Marketplace{
		shared:       shared,
		local:        &state.Session{},
		sessions:     make(map[string]*state.Session),
		store:        store,
		notes:        notes,
		sessionNotes: opts.SessionNotes,
		passwords:    opts.Passwords,
		lookup:       opts.Lookup,
		now:          opts.Now,
		newID:        opts.NewID,
		log:          logger,
	}
	m.restore(ctx)
	return m, nil
}

func (m *Marketplace) restore(ctx context.Context) {
	var users []domain.User
	if m.store.Load(ctx, domain.SliceUsers, &users) {
		m.shared.Users = users
	}
	var products []domain.Product
	if m.store.Load(ctx, domain.SliceProducts, &products) {
		m.shared.Products = products
	}
	var orders []domain.Order
	if m.store.Load(ctx, domain.SliceOrders, &orders) {
		m.shared.Orders = orders
	}
	var reviews []domain.Review
	if m.store.Load(ctx, domain.SliceReviews, &reviews) {
		m.shared.Reviews = reviews
	}

	var current domain.User
	if m.store.Load(ctx, domain.SliceCurrentUser, &current) && current.ID != "" {
		m.local.User = &current
	}
	m.loadSessionSlices(ctx, m.local)
	m.log.Infof("Use Case: Marketplace state restored (%d users, %d products, %d orders, %d reviews)",
		len(m.shared.Users), len(m.shared.Products), len(m.shared.Orders), len(m.shared.Reviews))
}

func (m *Marketplace) loadSessionSlices(ctx context.Context, sess *state.Session) {
	var cart []domain.CartItem
	if m.store.Load(ctx, sessionKey(domain.SliceCart, sess), &cart) {
		sess.Cart = cart
	}
	var wishlist []domain.Product
	if m.store.Load(ctx, sessionKey(domain.SliceWishlist, sess), &wishlist) {
		sess.Wishlist = wishlist
	}
}

func sessionKey(slice string, sess *state.Session) string {
	if sess.Key == "" {
		return slice
	}
	return slice + ":" + sess.Key
}

// Local is the device session whose user, cart and wishlist persist under the
// plain slice names.
func (m *Marketplace) Local() *state.Session {
	return m.local
}

// UserSession returns the server-side session of an authenticated API user.
// Its cart and wishlist persist as cart:<id> and wishlist:<id>.
func (m *Marketplace) UserSession(ctx context.Context, userID string) (*state.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var user *domain.User
	for i := range m.shared.Users {
		if m.shared.Users[i].ID == userID {
			u := m.shared.Users[i]
			user = &u
			break
		}
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	sess, ok := m.sessions[userID]
	if !ok {
		sess = &state.Session{Key: userID}
		m.loadSessionSlices(ctx, sess)
		m.sessions[userID] = sess
	}
	sess.User = user
	return sess, nil
}

// Ephemeral returns a session that is never persisted, used to authenticate
// API calls before tokens are issued.
func (m *Marketplace) Ephemeral() *state.Session {
	return &state.Session{Ephemeral: true}
}

func (m *Marketplace) view(sess *state.Session) *state.State {
	s := state.New(m.shared, sess)
	s.Passwords = m.passwords
	s.LookupSeller = m.lookup
	s.Now = m.now
	s.NewID = m.newID
	return s
}

func (m *Marketplace) persist(ctx context.Context, key string, v interface{}) {
	if err := m.store.Save(ctx, key, v); err != nil {
		m.log.Errorf("Use Case: Failed to persist %s: %v", key, err)
	}
}

func (m *Marketplace) forget(ctx context.Context, key string) {
	if err := m.store.Remove(ctx, key); err != nil {
		m.log.Errorf("Use Case: Failed to remove %s: %v", key, err)
	}
}

func (m *Marketplace) persistSessionUser(ctx context.Context, sess *state.Session) {
	if sess.Ephemeral || sess.Key != "" {
		return
	}
	if sess.User == nil {
		m.forget(ctx, domain.SliceCurrentUser)
		return
	}
	m.persist(ctx, domain.SliceCurrentUser, sess.User)
}

func (m *Marketplace) persistCart(ctx context.Context, sess *state.Session) {
	if sess.Ephemeral {
		return
	}
	if len(sess.Cart) == 0 {
		m.forget(ctx, sessionKey(domain.SliceCart, sess))
		return
	}
	m.persist(ctx, sessionKey(domain.SliceCart, sess), sess.Cart)
}

func (m *Marketplace) persistWishlist(ctx context.Context, sess *state.Session) {
	if sess.Ephemeral {
		return
	}
	if len(sess.Wishlist) == 0 {
		m.forget(ctx, sessionKey(domain.SliceWishlist, sess))
		return
	}
	m.persist(ctx, sessionKey(domain.SliceWishlist, sess), sess.Wishlist)
}

// notesFor picks the notifier that shows feedback to the session's user.
// API sessions each have their own; an ephemeral session reports to the user
// it just authenticated, or to nobody.
func (m *Marketplace) notesFor(sess *state.Session) Notifier {
	if sess == nil || m.sessionNotes == nil {
		return m.notes
	}
	switch {
	case sess.Key != "":
		return m.sessionNotes(sess.Key)
	case sess.Ephemeral && sess.User != nil:
		return m.sessionNotes(sess.User.ID)
	case sess.Ephemeral:
		return nil
	}
	return m.notes
}

// fail logs a rejected action, tells the user and hands the error back.
func (m *Marketplace) fail(sess *state.Session, action string, err error, message string) error {
	typ := domain.NotifyError
	if message == "" {
		message, typ = describe(err)
	}
	m.log.Warnf("Use Case: %s rejected: %v", action, err)
	if notes := m.notesFor(sess); notes != nil {
		notes.Notify(message, typ)
	}
	return err
}

func describe(err error) (string, domain.NotificationType) {
	var inv *domain.InventoryError
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		return "Please login first!", domain.NotifyWarning
	case errors.Is(err, domain.ErrOutOfStock):
		return "Product out of stock!", domain.NotifyError
	case errors.Is(err, domain.ErrAlreadyInCart):
		return "Product already in cart!", domain.NotifyWarning
	case errors.As(err, &inv):
		return "Insufficient inventory!", domain.NotifyError
	case errors.Is(err, domain.ErrDuplicateUsername):
		return "Username already exists!", domain.NotifyError
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "Invalid username or password!", domain.NotifyError
	case errors.Is(err, domain.ErrWrongCurrentPassword):
		return "Current password is incorrect", domain.NotifyError
	case errors.Is(err, domain.ErrPasswordMismatch):
		return "New passwords do not match", domain.NotifyError
	case errors.Is(err, domain.ErrPasswordTooShort):
		return fmt.Sprintf("Password must be at least %d characters", domain.MinPasswordLength), domain.NotifyError
	case errors.Is(err, domain.ErrEmptyCart):
		return "Cart is empty!", domain.NotifyWarning
	case errors.Is(err, domain.ErrDuplicateReview):
		return "You have already reviewed this product", domain.NotifyWarning
	default:
		return err.Error(), domain.NotifyError
	}
}

func (m *Marketplace) succeed(sess *state.Session, message string, typ domain.NotificationType) {
	if notes := m.notesFor(sess); notes != nil {
		notes.Notify(message, typ)
	}
}

// Notifications lists the active notifications of the session's user.
func (m *Marketplace) Notifications(sess *state.Session) []domain.Notification {
	notes := m.notesFor(sess)
	if notes == nil {
		return []domain.Notification{}
	}
	return notes.Active()
}

func (m *Marketplace) DismissNotification(sess *state.Session, id string) error {
	notes := m.notesFor(sess)
	if notes == nil || !notes.Dismiss(id) {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
