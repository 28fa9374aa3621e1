package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one cached capability answer.
type Entry struct {
	Value     json.RawMessage
	Source    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type Config struct {
	TTL        time.Duration
	MaxEntries int
}

// ResponseCache is a bounded TTL map for research answers, keyed by signature.
type ResponseCache struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func NewResponseCache(config Config) *ResponseCache {
	if config.TTL <= 0 {
		config.TTL = 30 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 500
	}
	return &ResponseCache{
		entries:    make(map[string]Entry),
		ttl:        config.TTL,
		maxEntries: config.MaxEntries,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (c *ResponseCache) Get(signature string) (Entry, bool) {
	c.mu.RLock()
	entry, exists := c.entries[signature]
	c.mu.RUnlock()

	if !exists {
		return Entry{}, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.mu.Lock()
		delete(c.entries, signature)
		c.mu.Unlock()
		return Entry{}, false
	}
	return cloneEntry(entry), true
}

func (c *ResponseCache) Set(signature string, entry Entry) {
	now := c.now()
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.ttl)
	entry.Value = append([]byte(nil), entry.Value...)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[signature]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[signature] = entry
}

func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// BuildSignature hashes the case- and whitespace-normalised parts.
func BuildSignature(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		normalized = append(normalized, strings.TrimSpace(strings.ToLower(part)))
	}
	sum := sha256.Sum256([]byte(strings.Join(normalized, "||")))
	return hex.EncodeToString(sum[:])
}

func (c *ResponseCache) evictOldest() {
	if len(c.entries) == 0 {
		return
	}

	type pair struct {
		key   string
		value Entry
	}
	pairs := make([]pair, 0, len(c.entries))
	for key, value := range c.entries {
		pairs = append(pairs, pair{key: key, value: value})
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].value.CreatedAt.Before(pairs[j].value.CreatedAt)
	})
	delete(c.entries, pairs[0].key)
}

func cloneEntry(entry Entry) Entry {
	clone := entry
	clone.Value = append([]byte(nil), entry.Value...)
	return clone
}
