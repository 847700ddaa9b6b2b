package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// bodyCache memoizes fetched bodies for one process lifetime so that
// the excavator and enricher never re-download a page the orchestrator
// already pulled. Memory first, optional disk spill-over.
type bodyCache struct {
	mem *gocache.Cache
	dir string // empty disables the disk layer
	ttl time.Duration
}

func newBodyCache(dir string, ttl time.Duration) *bodyCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &bodyCache{
		mem: gocache.New(ttl, 10*time.Minute),
		dir: dir,
		ttl: ttl,
	}
}

type cachedBody struct {
	Body      string    `json:"body"`
	FinalURL  string    `json:"final_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "sourcerer:v1:" + hex.EncodeToString(sum[:])
}

func (c *bodyCache) get(url string) (*cachedBody, bool) {
	key := cacheKey(url)
	if v, ok := c.mem.Get(key); ok {
		entry := v.(cachedBody)
		return &entry, true
	}
	if c.dir == "" {
		return nil, false
	}
	raw, err := os.ReadFile(filepath.Join(c.dir, key))
	if err != nil {
		return nil, false
	}
	var entry cachedBody
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if time.Now().After(entry.ExpiresAt) {
		_ = os.Remove(filepath.Join(c.dir, key))
		return nil, false
	}
	// Promote to memory
	c.mem.Set(key, entry, gocache.DefaultExpiration)
	return &entry, true
}

func (c *bodyCache) put(url string, entry cachedBody) {
	entry.ExpiresAt = time.Now().Add(c.ttl)
	key := cacheKey(url)
	c.mem.Set(key, entry, gocache.DefaultExpiration)
	if c.dir == "" {
		return
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(c.dir, key), raw, 0o644)
}
