package domain

import "context"

// Names of the persisted state slices.
const (
	SliceCurrentUser   = "currentUser"
	SliceCart          = "cart"
	SliceOrders        = "orders"
	SliceUsers         = "users"
	SliceProducts      = "products"
	SliceWishlist      = "wishlist"
	SliceReviews       = "reviews"
	SliceNotifications = "notifications"
)

// KVStore is the key-value backend state slices are written to. Get reports
// false when the key is absent.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
