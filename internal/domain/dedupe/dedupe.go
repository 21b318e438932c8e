// Package dedupe tracks attempt submission ids so a retried request is
// applied at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
)

const defaultMaxSize = 50_000

// Deduper records seen submission ids.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it if not.
	// It returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so the submission can be retried. Used when the
	// submission was marked as seen but could not be applied.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// memoryDeduper keeps ids in insertion order and evicts the oldest once the
// bound is reached. A non-positive bound disables eviction.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
}

// NewInMemoryDeduper creates a deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*list.Element)
	d.order = list.New()
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.seen, oldest.Value.(string))
			d.order.Remove(oldest)
		}
	}
	d.seen[id] = d.order.PushBack(id)
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[id]; ok {
		d.order.Remove(el)
		delete(d.seen, id)
	}
}

func (d *memoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.seen))
}
