package notify

import (
	"testing"
	"time"

	"minihub/internal/domain"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryKeepsOneCenterPerKey(t *testing.T) {
	logger, _ := test.NewNullLogger()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	setups := map[string]int{}
	r := NewRegistry(clock, DefaultTTL, DefaultLimit, logger, func(key string, c *Center) {
		setups[key]++
	})
	t.Cleanup(r.Close)

	alice := r.Center("alice")
	require.Same(t, alice, r.Center("alice"))
	bob := r.Center("bob")
	assert.NotSame(t, alice, bob)
	assert.Equal(t, map[string]int{"alice": 1, "bob": 1}, setups)

	n := alice.Notify("hello alice", domain.NotifyInfo)
	assert.Empty(t, bob.Active())
	assert.False(t, bob.Dismiss(n.ID))
	assert.Len(t, alice.Active(), 1)
}

func TestRegistryCloseStopsEveryCenter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := NewRegistry(clockwork.NewFakeClock(), DefaultTTL, DefaultLimit, logger, nil)

	a := r.Center("a")
	a.Notify("pending", domain.NotifyInfo)
	b := r.Center("b")
	r.Close()

	b.Notify("ignored", domain.NotifyInfo)
	assert.Empty(t, b.Active())
	a.mu.Lock()
	assert.Empty(t, a.timers)
	a.mu.Unlock()
}
