package usecase

import (
	"context"
	"sync"

	"minihub/internal/domain"
	"minihub/internal/notify"

	"github.com/sirupsen/logrus"
)

// NotificationsKey is the storage key of one session's notification set.
// The local session keeps the bare slice key.
func NotificationsKey(sessionKey string) string {
	if sessionKey == "" {
		return domain.SliceNotifications
	}
	return domain.SliceNotifications + ":" + sessionKey
}

// BindNotifications restores the set saved under key into center and keeps
// it in step with every later change.
func BindNotifications(ctx context.Context, center *notify.Center, store SliceStore, key string, logger *logrus.Logger) {
	var saved []domain.Notification
	if store.Load(ctx, key, &saved) {
		center.Restore(saved)
	}

	// Expiry events arrive on timer goroutines. Saves are serialized and
	// always write the live set.
	var mu sync.Mutex
	center.Subscribe(func(notify.Event) {
		mu.Lock()
		defer mu.Unlock()
		if err := store.Save(context.Background(), key, center.Active()); err != nil {
			logger.Errorf("Use Case: Failed to persist notifications under %s: %v", key, err)
		}
	})
}
