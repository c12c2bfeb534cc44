package embedding

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/hsn0918/ragctl/internal/logging"
)

// cacheEntry is one line of the append-only cache log (spec §3, §6):
// {"k": hex256, "v": [float]}.
type cacheEntry struct {
	Key    string    `json:"k"`
	Vector []float32 `json:"v"`
}

// Cache is the content-addressed, append-only embedding cache colocated
// with an input file, one per (source, model) pair (spec §4.3).
// Duplicate keys are tolerated; the last write wins on load.
type Cache struct {
	path string
	lock *flock.Flock

	mu   sync.Mutex
	data map[string][]float32
}

// OpenCache loads path (if it exists) into memory and returns a Cache
// ready to serve Get/Append calls. Corrupt lines are skipped with a
// warning (errs.KindCacheCorruption), never fatal.
func OpenCache(path string) (*Cache, error) {
	c := &Cache{
		path: path,
		lock: flock.New(path + ".lock"),
		data: map[string][]float32{},
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Cache) load() error {
	f, err := os.Open(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 32*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e cacheEntry
		if err := json.Unmarshal(line, &e); err != nil {
			logging.Get().Warn("embedding cache: skipping corrupt line",
				zap.String("path", c.path), zap.Error(err))
			continue
		}
		c.data[e.Key] = e.Vector
	}
	return sc.Err()
}

// Get returns the cached vector for key, if present.
func (c *Cache) Get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// Append persists entries under an advisory file lock held only for the
// duration of this call (spec §5), then updates the in-memory view.
func (c *Cache) Append(entries []cacheEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := c.lock.Lock(); err != nil {
		return err
	}
	defer c.lock.Unlock()

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := w.Write(b); err != nil {
			return err
		}
		if _, err := w.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	c.mu.Lock()
	for _, e := range entries {
		c.data[e.Key] = e.Vector
	}
	c.mu.Unlock()
	return nil
}

// Len reports the number of distinct keys currently cached, used by
// tests asserting cache idempotence (spec §8).
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// CacheKey builds the spec §3 cache key:
// SHA-256(model_name ‖ "\n" ‖ model_version ‖ "\n" ‖ text_bytes), hex-encoded.
func CacheKey(modelName, modelVersion, text string) string {
	h := sha256.New()
	h.Write([]byte(modelName))
	h.Write([]byte("\n"))
	h.Write([]byte(modelVersion))
	h.Write([]byte("\n"))
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
