// Package hooks is a synchronous event dispatcher with priority ordering.
package hooks

import (
	"context"
	"sort"
	"sync"
)

// Event names fired by the domain services.
const (
	FormSaved           = "form.saved"
	FormDeleted         = "form.deleted"
	SubmissionCreated   = "submission.created"
	SubmissionDeleted   = "submission.deleted"
	IntegrationPostFail = "integration.post_failed"
)

// DefaultPriority matches the ordering slot most listeners use.
const DefaultPriority = 10

type Listener func(ctx context.Context, payload any)

type entry struct {
	priority int
	seq      int
	fn       Listener
}

// Dispatcher runs listeners in ascending priority; equal priorities run in
// subscription order.
type Dispatcher struct {
	mu        sync.RWMutex
	seq       int
	listeners map[string][]entry
}

func New() *Dispatcher {
	return &Dispatcher{listeners: make(map[string][]entry)}
}

func (d *Dispatcher) On(event string, priority int, fn Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	old := d.listeners[event]
	list := make([]entry, 0, len(old)+1)
	list = append(list, old...)
	list = append(list, entry{priority: priority, seq: d.seq, fn: fn})
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
	d.listeners[event] = list
}

// Fire calls every listener of event before returning. A nil dispatcher is a no-op.
func (d *Dispatcher) Fire(ctx context.Context, event string, payload any) {
	if d == nil {
		return
	}
	d.mu.RLock()
	list := d.listeners[event]
	d.mu.RUnlock()
	for _, e := range list {
		e.fn(ctx, payload)
	}
}
