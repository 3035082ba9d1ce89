package app

import (
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/berriz-playback/internal/domain"
)

const (
	DefaultCacheCapacity = 7
	DefaultCacheTTL      = 30 * time.Second
)

type CacheItem struct {
	ID    string
	Entry domain.Entry
}

// PlaybackCache est borné à capacity entrées.
// order suit l'ordre d'insertion/mise à jour: une mise à jour replace la clé en fin.
type PlaybackCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	entries  map[string]domain.Entry
	order    []string

	// onEvict est optionnel (métriques, logs).
	onEvict func(id string)
}

func NewPlaybackCache(capacity int, ttl time.Duration) *PlaybackCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl < 0 {
		ttl = 0
	}
	return &PlaybackCache{
		capacity: capacity,
		ttl:      ttl,
		entries:  make(map[string]domain.Entry, capacity+1),
	}
}

func (c *PlaybackCache) OnEvict(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

func (c *PlaybackCache) Capacity() int { return c.capacity }

func (c *PlaybackCache) TTL() time.Duration { return c.ttl }

func (c *PlaybackCache) Get(id string) (domain.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e, ok
}

// Fresh renvoie l'entrée si elle peut être réutilisée sans refetch: now - timestamp <= ttl.
func (c *PlaybackCache) Fresh(id string, now time.Time) (domain.Entry, bool) {
	e, ok := c.Get(id)
	if !ok {
		return domain.Entry{}, false
	}
	if now.Sub(e.Timestamp) > c.ttl {
		return domain.Entry{}, false
	}
	return e, true
}

// Put insère ou remplace, puis évince au plus une entrée si la capacité est dépassée.
// Renvoie l'id évincé ("" si aucun).
func (c *PlaybackCache) Put(id string, entry domain.Entry) string {
	c.mu.Lock()
	if _, ok := c.entries[id]; ok {
		c.removeFromOrderLocked(id)
	}
	c.entries[id] = entry
	c.order = append(c.order, id)

	evicted := ""
	if len(c.entries) > c.capacity {
		evicted = c.oldestLocked()
		delete(c.entries, evicted)
		c.removeFromOrderLocked(evicted)
	}
	onEvict := c.onEvict
	c.mu.Unlock()

	if evicted != "" && onEvict != nil {
		onEvict(evicted)
	}
	return evicted
}

func (c *PlaybackCache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[id]; !ok {
		return false
	}
	delete(c.entries, id)
	c.removeFromOrderLocked(id)
	return true
}

func (c *PlaybackCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]domain.Entry, c.capacity+1)
	c.order = nil
}

func (c *PlaybackCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Snapshot est une copie: le consommateur ne touche jamais au cache partagé.
func (c *PlaybackCache) Snapshot() []CacheItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CacheItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, CacheItem{ID: id, Entry: cloneEntry(c.entries[id])})
	}
	return out
}

// oldestLocked parcourt tout le cache dans l'ordre de mise à jour.
// Comparaison stricte: à timestamp égal, la première entrée rencontrée est évincée.
func (c *PlaybackCache) oldestLocked() string {
	oldest := ""
	var oldestAt time.Time
	for _, id := range c.order {
		at := c.entries[id].Timestamp
		if oldest == "" || at.Before(oldestAt) {
			oldest = id
			oldestAt = at
		}
	}
	return oldest
}

func (c *PlaybackCache) removeFromOrderLocked(id string) {
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func cloneEntry(e domain.Entry) domain.Entry {
	out := e
	if e.IsDRM != nil {
		v := *e.IsDRM
		out.IsDRM = &v
	}
	out.HLS = append([]string{}, e.HLS...)
	out.DASH = append([]string{}, e.DASH...)
	out.HLSVariants = append([]domain.HLSVariant{}, e.HLSVariants...)
	if e.Error != nil {
		ee := *e.Error
		ee.MissingCookies = append([]string(nil), e.Error.MissingCookies...)
		out.Error = &ee
	}
	return out
}
