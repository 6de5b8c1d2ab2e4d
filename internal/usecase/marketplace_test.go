package usecase

import (
	"context"
	"testing"
	"time"

	"minihub/internal/domain"
	"minihub/internal/notify"
	"minihub/internal/state"
	"minihub/internal/storage"

	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type MarketplaceSuite struct {
	suite.Suite
	ctx    context.Context
	logger *logrus.Logger
	kv     domain.KVStore
	store  *storage.Slices
	clock  *clockwork.FakeClock
	center *notify.Center
	market *Marketplace
}

func (s *MarketplaceSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger, _ = test.NewNullLogger()
	s.kv = storage.NewMemoryStore()
	s.store = storage.NewSlices(s.kv, s.logger)
	s.clock = clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	s.market = s.open()
}

func (s *MarketplaceSuite) TearDownTest() {
	s.center.Close()
}

// open builds a marketplace over the suite's store, as a restart would.
func (s *MarketplaceSuite) open() *Marketplace {
	if s.center != nil {
		s.center.Close()
	}
	s.center = notify.NewCenter(s.clock, notify.DefaultTTL, notify.DefaultLimit, s.logger)
	m, err := NewMarketplace(s.ctx, s.store, s.center, Options{
		Demo: state.DemoAccount{Username: "admin", Password: "admin123"},
		Now:  s.clock.Now,
	}, s.logger)
	s.Require().NoError(err)
	return m
}

func (s *MarketplaceSuite) lastMessage() domain.Notification {
	active := s.center.Active()
	s.Require().NotEmpty(active)
	return active[0]
}

func (s *MarketplaceSuite) registerBuyer(sess *state.Session, username string) domain.User {
	u, err := s.market.Register(s.ctx, sess, domain.Registration{
		Username: username, Password: "secret1", Name: username, Email: username + "@example.com",
	})
	s.Require().NoError(err)
	return u
}

func (s *MarketplaceSuite) stored(key string) bool {
	_, ok, err := s.kv.Get(s.ctx, key)
	s.Require().NoError(err)
	return ok
}

func TestMarketplaceSuite(t *testing.T) {
	suite.Run(t, new(MarketplaceSuite))
}

func (s *MarketplaceSuite) TestLoginFailureNotifiesAndKeepsSessionEmpty() {
	_, err := s.market.Login(s.ctx, s.market.Local(), "admin", "wrong")
	s.ErrorIs(err, domain.ErrInvalidCredentials)
	s.False(s.market.Local().Authenticated())
	s.Equal("Invalid username or password!", s.lastMessage().Message)
	s.Equal(domain.NotifyError, s.lastMessage().Type)
	s.False(s.stored(domain.SliceCurrentUser))

	u, err := s.market.Login(s.ctx, s.market.Local(), "admin", "admin123")
	s.Require().NoError(err)
	s.Equal("Welcome back, Admin User!", s.lastMessage().Message)
	s.Equal(u.ID, s.market.Local().User.ID)
	s.True(s.stored(domain.SliceCurrentUser))
}

func (s *MarketplaceSuite) TestRegisterSurvivesRestart() {
	s.registerBuyer(s.market.Local(), "alice")
	s.Equal("Registration successful! Welcome to MiniHub!", s.lastMessage().Message)

	_, err := s.market.Register(s.ctx, s.market.Ephemeral(), domain.Registration{Username: "alice", Password: "x", Name: "A"})
	s.ErrorIs(err, domain.ErrDuplicateUsername)
	s.Equal("Username already exists!", s.lastMessage().Message)

	s.market = s.open()
	s.Require().True(s.market.Local().Authenticated())
	s.Equal("alice", s.market.Local().User.Username)

	_, err = s.market.Login(s.ctx, s.market.Ephemeral(), "alice", "secret1")
	s.NoError(err)
}

func (s *MarketplaceSuite) TestCorruptSlicesFallBackToSeed() {
	s.Require().NoError(s.kv.Set(s.ctx, domain.SliceProducts, []byte(`{"broken"`)))
	s.Require().NoError(s.kv.Set(s.ctx, domain.SliceCurrentUser, []byte(`nope`)))
	s.market = s.open()

	s.Len(s.market.Products(domain.ProductFilter{}), 4)
	s.False(s.market.Local().Authenticated())
}

func (s *MarketplaceSuite) TestCheckoutScenario() {
	local := s.market.Local()
	s.registerBuyer(local, "alice")
	_, err := s.market.AddToCart(s.ctx, local, "1")
	s.Require().NoError(err)
	_, err = s.market.AddToCart(s.ctx, local, "2")
	s.Require().NoError(err)
	s.Require().NoError(s.market.SetQuantity(s.ctx, local, "2", 2))
	s.True(s.stored(domain.SliceCart))

	_, total := s.market.Cart(local)
	s.True(total.Equal(decimal.NewFromInt(115)))

	orders, err := s.market.Checkout(s.ctx, local)
	s.Require().NoError(err)
	s.Len(orders, 2)
	s.Equal("All orders placed successfully!", s.lastMessage().Message)
	s.False(s.stored(domain.SliceCart))

	s.market = s.open()
	p1, err := s.market.Product("1")
	s.Require().NoError(err)
	s.Equal(9, p1.Inventory)
	p2, err := s.market.Product("2")
	s.Require().NoError(err)
	s.Equal(3, p2.Inventory)

	mine, err := s.market.Orders(s.market.Local())
	s.Require().NoError(err)
	s.Len(mine, 2)
}

func (s *MarketplaceSuite) TestCheckoutShortfallNamesProduct() {
	local := s.market.Local()
	s.registerBuyer(local, "alice")
	_, err := s.market.AddToCart(s.ctx, local, "2")
	s.Require().NoError(err)
	s.Require().NoError(s.market.SetQuantity(s.ctx, local, "2", 9))

	_, err = s.market.Checkout(s.ctx, local)
	s.ErrorIs(err, domain.ErrInsufficientInventory)
	s.Equal("Insufficient inventory for Website Template", s.lastMessage().Message)
	s.False(s.stored(domain.SliceOrders))

	_, err = s.market.BuyNow(s.ctx, local, "2", 9)
	s.ErrorIs(err, domain.ErrInsufficientInventory)
	s.Equal("Insufficient inventory!", s.lastMessage().Message)
}

func (s *MarketplaceSuite) TestCartMessages() {
	local := s.market.Local()
	_, err := s.market.AddToCart(s.ctx, local, "1")
	s.ErrorIs(err, domain.ErrNotAuthenticated)
	s.Equal("Please login first!", s.lastMessage().Message)
	s.Equal(domain.NotifyWarning, s.lastMessage().Type)

	s.registerBuyer(local, "alice")
	_, err = s.market.AddToCart(s.ctx, local, "1")
	s.Require().NoError(err)
	_, err = s.market.AddToCart(s.ctx, local, "1")
	s.ErrorIs(err, domain.ErrAlreadyInCart)
	s.Equal("Product already in cart!", s.lastMessage().Message)

	s.Require().NoError(s.market.RemoveFromCart(s.ctx, local, "1"))
	s.Equal("Removed from cart", s.lastMessage().Message)

	added, err := s.market.ToggleWishlist(s.ctx, local, "3")
	s.Require().NoError(err)
	s.True(added)
	s.True(s.stored(domain.SliceWishlist))
	added, err = s.market.ToggleWishlist(s.ctx, local, "3")
	s.Require().NoError(err)
	s.False(added)
	s.Equal("Removed from wishlist", s.lastMessage().Message)
	s.False(s.stored(domain.SliceWishlist))
}

func (s *MarketplaceSuite) TestOnlyBuyersPurchaseOthersListings() {
	seller := s.market.Ephemeral()
	_, err := s.market.Login(s.ctx, seller, "admin", "admin123")
	s.Require().NoError(err)
	_, err = s.market.AddToCart(s.ctx, seller, "1")
	s.ErrorIs(err, domain.ErrForbidden)
	s.Equal("Only buyers can purchase products", s.lastMessage().Message)
	_, err = s.market.BuyNow(s.ctx, seller, "1", 1)
	s.ErrorIs(err, domain.ErrForbidden)
	s.Empty(seller.Cart)

	john := s.market.Ephemeral()
	_, err = s.market.Register(s.ctx, john, domain.Registration{
		Username: "jdoe", Password: "secret1", Name: "John Doe", Email: "jdoe@example.com",
	})
	s.Require().NoError(err)
	_, err = s.market.BuyNow(s.ctx, john, "1", 1)
	s.ErrorIs(err, domain.ErrForbidden)
	s.Equal("You cannot buy your own product", s.lastMessage().Message)
	_, err = s.market.AddToCart(s.ctx, john, "1")
	s.ErrorIs(err, domain.ErrForbidden)

	p, err := s.market.Product("1")
	s.Require().NoError(err)
	s.Equal(10, p.Inventory)
	s.False(s.stored(domain.SliceOrders))

	_, err = s.market.BuyNow(s.ctx, john, "2", 1)
	s.NoError(err)
}

func (s *MarketplaceSuite) TestLogoutForgetsSessionSlices() {
	local := s.market.Local()
	s.registerBuyer(local, "alice")
	_, err := s.market.AddToCart(s.ctx, local, "1")
	s.Require().NoError(err)
	_, err = s.market.ToggleWishlist(s.ctx, local, "2")
	s.Require().NoError(err)

	s.market.Logout(s.ctx, local)
	s.False(s.stored(domain.SliceCurrentUser))
	s.False(s.stored(domain.SliceCart))
	s.False(s.stored(domain.SliceWishlist))
	s.True(s.stored(domain.SliceUsers))
	s.Equal("Logged out successfully", s.lastMessage().Message)
}

func (s *MarketplaceSuite) TestUserSessionsPersistUnderTheirOwnKeys() {
	alice := s.registerBuyer(s.market.Ephemeral(), "alice")
	s.False(s.stored(domain.SliceCurrentUser))

	sess, err := s.market.UserSession(s.ctx, alice.ID)
	s.Require().NoError(err)
	_, err = s.market.AddToCart(s.ctx, sess, "3")
	s.Require().NoError(err)
	s.True(s.stored("cart:" + alice.ID))
	s.False(s.stored(domain.SliceCart))

	s.market = s.open()
	sess, err = s.market.UserSession(s.ctx, alice.ID)
	s.Require().NoError(err)
	items, _ := s.market.Cart(sess)
	s.Require().Len(items, 1)
	s.Equal("3", items[0].Product.ID)

	_, err = s.market.UserSession(s.ctx, "ghost")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *MarketplaceSuite) TestReviewRules() {
	admin := s.market.Ephemeral()
	_, err := s.market.Login(s.ctx, admin, "admin", "admin123")
	s.Require().NoError(err)
	_, err = s.market.AddReview(s.ctx, admin, "1", 5, "mine")
	s.ErrorIs(err, domain.ErrForbidden)

	buyer := s.market.Ephemeral()
	s.registerBuyer(buyer, "alice")
	_, err = s.market.AddReview(s.ctx, buyer, "1", 4, "good")
	s.Require().NoError(err)
	s.Equal("Review added successfully!", s.lastMessage().Message)

	_, err = s.market.AddReview(s.ctx, buyer, "1", 1, "changed my mind")
	s.ErrorIs(err, domain.ErrDuplicateReview)

	reviews, err := s.market.Reviews("1")
	s.Require().NoError(err)
	s.Len(reviews, 1)
	p, err := s.market.Product("1")
	s.Require().NoError(err)
	s.InDelta(4.0, p.Rating, 1e-9)
	s.True(s.stored(domain.SliceReviews))

	_, err = s.market.Reviews("missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *MarketplaceSuite) TestProfileAndPassword() {
	sess := s.market.Ephemeral()
	s.registerBuyer(sess, "alice")

	_, err := s.market.UpdateProfile(s.ctx, sess, domain.ProfileUpdate{Name: "Alice", Email: "bad"})
	s.ErrorIs(err, domain.ErrValidation)

	u, err := s.market.UpdateProfile(s.ctx, sess, domain.ProfileUpdate{Name: "Alice", Email: "alice@example.com", Bio: "hi"})
	s.Require().NoError(err)
	s.Equal("Profile updated successfully!", s.lastMessage().Message)

	current, err := s.market.CurrentUser(sess)
	s.Require().NoError(err)
	s.Equal("hi", current.Bio)
	s.Equal(u.ID, current.ID)

	err = s.market.ChangePassword(s.ctx, sess, "secret1", "new", "new")
	s.ErrorIs(err, domain.ErrPasswordTooShort)
	s.Equal("Password must be at least 6 characters", s.lastMessage().Message)
	s.Require().NoError(s.market.ChangePassword(s.ctx, sess, "secret1", "secret2", "secret2"))
	s.Equal("Password changed successfully!", s.lastMessage().Message)
}

func (s *MarketplaceSuite) TestDecrementInventory() {
	p, err := s.market.DecrementInventory(s.ctx, "4", 3)
	s.Require().NoError(err)
	s.Equal(5, p.Inventory)

	_, err = s.market.DecrementInventory(s.ctx, "4", 6)
	s.ErrorIs(err, domain.ErrInsufficientInventory)
	p, err = s.market.Product("4")
	s.Require().NoError(err)
	s.Equal(5, p.Inventory)
}

func (s *MarketplaceSuite) TestDismissNotification() {
	_, _ = s.market.Login(s.ctx, s.market.Ephemeral(), "admin", "nope")
	n := s.lastMessage()
	local := s.market.Local()
	s.Require().NoError(s.market.DismissNotification(local, n.ID))
	s.Empty(s.market.Notifications(local))
	s.ErrorIs(s.market.DismissNotification(local, n.ID), domain.ErrNotFound)
}

func TestBindNotificationsPersistsActiveSet(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger, _ := test.NewNullLogger()
	kv := storage.NewMemoryStore()
	store := storage.NewSlices(kv, logger)
	clock := clockwork.NewFakeClock()

	center := notify.NewCenter(clock, notify.DefaultTTL, notify.DefaultLimit, logger)
	BindNotifications(context.Background(), center, store, NotificationsKey(""), logger)
	center.Notify("kept", domain.NotifyInfo)

	var saved []domain.Notification
	require.True(t, store.Load(context.Background(), domain.SliceNotifications, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "kept", saved[0].Message)
	center.Close()

	restored := notify.NewCenter(clock, notify.DefaultTTL, notify.DefaultLimit, logger)
	defer restored.Close()
	BindNotifications(context.Background(), restored, store, NotificationsKey(""), logger)
	assert.Len(t, restored.Active(), 1)
}

func TestBindNotificationsSavesLatestSetAfterExpiry(t *testing.T) {
	defer goleak.VerifyNone(t)
	logger, _ := test.NewNullLogger()
	store := storage.NewSlices(storage.NewMemoryStore(), logger)
	clock := clockwork.NewFakeClock()
	key := NotificationsKey("u-1")
	assert.Equal(t, "notifications:u-1", key)

	center := notify.NewCenter(clock, notify.DefaultTTL, notify.DefaultLimit, logger)
	defer center.Close()
	BindNotifications(context.Background(), center, store, key, logger)
	center.Notify("first", domain.NotifyInfo)
	clock.Advance(time.Second)
	center.Notify("second", domain.NotifyInfo)
	clock.Advance(notify.DefaultTTL - time.Second)

	// Only "first" has expired; whichever goroutine saves last must see that.
	assert.Eventually(t, func() bool {
		var saved []domain.Notification
		return store.Load(context.Background(), key, &saved) &&
			len(saved) == 1 && saved[0].Message == "second"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, store.Load(context.Background(), domain.SliceNotifications, new([]domain.Notification)))
}

func TestSessionNotificationsAreIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	logger, _ := test.NewNullLogger()
	store := storage.NewSlices(storage.NewMemoryStore(), logger)
	clock := clockwork.NewFakeClock()

	registry := notify.NewRegistry(clock, notify.DefaultTTL, notify.DefaultLimit, logger, func(key string, c *notify.Center) {
		BindNotifications(ctx, c, store, NotificationsKey(key), logger)
	})
	defer registry.Close()
	market, err := NewMarketplace(ctx, store, registry.Center(""), Options{
		SessionNotes: func(key string) Notifier { return registry.Center(key) },
		Now:          clock.Now,
	}, logger)
	require.NoError(t, err)

	register := func(username string) *state.Session {
		u, err := market.Register(ctx, market.Ephemeral(), domain.Registration{
			Username: username, Password: "secret1", Name: username, Email: username + "@example.com",
		})
		require.NoError(t, err)
		sess, err := market.UserSession(ctx, u.ID)
		require.NoError(t, err)
		return sess
	}
	alice := register("alice")
	bob := register("bob")

	aliceNotes := market.Notifications(alice)
	require.Len(t, aliceNotes, 1)
	assert.Equal(t, "Registration successful! Welcome to MiniHub!", aliceNotes[0].Message)
	require.Len(t, market.Notifications(bob), 1)
	assert.NotEqual(t, aliceNotes[0].ID, market.Notifications(bob)[0].ID)

	assert.ErrorIs(t, market.DismissNotification(bob, aliceNotes[0].ID), domain.ErrNotFound)
	assert.Len(t, market.Notifications(alice), 1)
	require.NoError(t, market.DismissNotification(alice, aliceNotes[0].ID))
	assert.Empty(t, market.Notifications(alice))

	_, err = market.Login(ctx, market.Ephemeral(), "alice", "wrong")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.Empty(t, market.Notifications(alice))
	assert.Empty(t, registry.Center("").Active())

	var saved []domain.Notification
	assert.True(t, store.Load(ctx, NotificationsKey(bob.Key), &saved))
	assert.Len(t, saved, 1)
}
