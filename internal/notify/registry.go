package notify

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

// Registry hands out one Center per session key, creating it on first use.
// setup runs once for every new center before it is returned.
type Registry struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	ttl     time.Duration
	limit   int
	centers map[string]*Center
	setup   func(key string, c *Center)
	log     *logrus.Logger
}

func NewRegistry(clock clockwork.Clock, ttl time.Duration, limit int, logger *logrus.Logger, setup func(key string, c *Center)) *Registry {
	return &Registry{
		clock:   clock,
		ttl:     ttl,
		limit:   limit,
		centers: make(map[string]*Center),
		setup:   setup,
		log:     logger,
	}
}

func (r *Registry) Center(key string) *Center {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.centers[key]; ok {
		return c
	}
	c := NewCenter(r.clock, r.ttl, r.limit, r.log)
	if r.setup != nil {
		r.setup(key, c)
	}
	r.centers[key] = c
	return c
}

func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.centers {
		c.Close()
	}
}
