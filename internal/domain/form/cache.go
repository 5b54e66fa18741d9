package form

import (
	"context"
	"time"

	"github.com/erni27/imcache"

	"properforms/internal/pkg/hooks"
)

// cache keeps built forms by id. Entries expire after ttl and are dropped
// whenever a form is saved or deleted.
type cache struct {
	entries *imcache.Cache[int64, Loaded]
	ttl     time.Duration
}

func newCache(ttl time.Duration) *cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &cache{entries: imcache.New[int64, Loaded](), ttl: ttl}
}

func (c *cache) get(id int64) (*Loaded, bool) {
	l, ok := c.entries.Get(id)
	if !ok {
		return nil, false
	}
	return &l, true
}

func (c *cache) set(l *Loaded) {
	c.entries.Set(l.ID, *l, imcache.WithExpiration(c.ttl))
}

func (c *cache) invalidate(id int64) {
	c.entries.Remove(id)
}

// subscribe hooks the cache to form write events. The payload is the form id.
func (c *cache) subscribe(events *hooks.Dispatcher) {
	if events == nil {
		return
	}
	drop := func(_ context.Context, payload any) {
		if id, ok := payload.(int64); ok {
			c.invalidate(id)
		}
	}
	events.On(hooks.FormSaved, hooks.DefaultPriority-1, drop)
	events.On(hooks.FormDeleted, hooks.DefaultPriority-1, drop)
}
