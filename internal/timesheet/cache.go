package timesheet

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/technosprint/timesheet/internal/store"
)

// EntryStore is the persistence the timesheet reads and writes entries
// through. *store.Store satisfies it.
type EntryStore interface {
	ListEntries(f store.EntryFilter) ([]store.TimeEntry, error)
	CreateEntry(in store.EntryInput) (*store.TimeEntry, error)
	UpdateEntry(id string, in store.EntryInput) (*store.TimeEntry, error)
	DeleteEntry(id string) error
}

// CachedStore memoizes ListEntries results for a limited time. Any write
// through it purges the whole cache and bumps a generation, and a read
// that overlapped a write is returned without being cached, so a writer
// always reads its own writes. Writes that bypass the CachedStore are seen
// once the TTL expires.
type CachedStore struct {
	next  EntryStore
	cache *expirable.LRU[string, []store.TimeEntry]

	mu  sync.Mutex
	gen uint64
}

func NewCachedStore(next EntryStore, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = 64
	}
	return &CachedStore{
		next:  next,
		cache: expirable.NewLRU[string, []store.TimeEntry](size, nil, ttl),
	}
}

func cacheKey(f store.EntryFilter) string {
	key := f.OwnerID + "|"
	if f.ProjectID != nil {
		key += *f.ProjectID
	}
	key += "|"
	if f.From != nil {
		key += f.From.Format(store.DateLayout)
	}
	key += "|"
	if f.To != nil {
		key += f.To.Format(store.DateLayout)
	}
	return key + fmt.Sprintf("|%d", f.Limit)
}

// ListEntries returns deep copies of the cached entries so callers cannot
// corrupt the cache.
func (c *CachedStore) ListEntries(f store.EntryFilter) ([]store.TimeEntry, error) {
	key := cacheKey(f)
	if entries, ok := c.cache.Get(key); ok {
		return cloneEntries(entries), nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	entries, err := c.next.ListEntries(f)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(key, cloneEntries(entries))
	}
	c.mu.Unlock()
	return entries, nil
}

func cloneEntries(entries []store.TimeEntry) []store.TimeEntry {
	out := slices.Clone(entries)
	for i := range out {
		out[i].Tags = slices.Clone(out[i].Tags)
		if out[i].ProjectID != nil {
			id := *out[i].ProjectID
			out[i].ProjectID = &id
		}
	}
	return out
}

func (c *CachedStore) CreateEntry(in store.EntryInput) (*store.TimeEntry, error) {
	defer c.Invalidate()
	return c.next.CreateEntry(in)
}

func (c *CachedStore) UpdateEntry(id string, in store.EntryInput) (*store.TimeEntry, error) {
	defer c.Invalidate()
	return c.next.UpdateEntry(id, in)
}

func (c *CachedStore) DeleteEntry(id string) error {
	defer c.Invalidate()
	return c.next.DeleteEntry(id)
}

// Invalidate drops every cached range. Reads already in flight are not
// cached when they return.
func (c *CachedStore) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if n := c.cache.Len(); n > 0 {
		slog.Debug("entry cache purged", "ranges", n)
	}
	c.cache.Purge()
}

// Len reports how many ranges are cached.
func (c *CachedStore) Len() int {
	return c.cache.Len()
}
