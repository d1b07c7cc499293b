// Package cache provides a content-addressed blob cache for generated modules.
package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/snappy"
	"github.com/rs/zerolog"
)

// Metrics holds cache statistics for observability.
type Metrics struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Evictions atomic.Int64
	Entries   atomic.Int64
	SizeBytes atomic.Int64
}

// BlobCache stores snappy-compressed generation results on disk, keyed by
// schema fingerprint and generator version. A hit returns exactly the bytes
// that were stored, so cached output is byte-identical to regeneration.
type BlobCache struct {
	dir       string
	maxBytes  int64
	log       zerolog.Logger
	metrics   Metrics
	index     sync.Map    // key → *Entry
	evictChan chan string // channels keys for async eviction
	wg        sync.WaitGroup
	stopChan  chan struct{}
}

// Entry represents a cached blob.
type Entry struct {
	LocalPath   string
	SizeBytes   int64        // compressed size on disk
	LastAccess  atomic.Int64 // Unix nanos
	AccessCount atomic.Int64
}

// Key builds the cache key for a module generated from the schema with the
// given fingerprint by the given generator version. Entries written by other
// generator versions never match.
func Key(fingerprint, generator string) string {
	return fingerprint + "-g" + generator
}

// NewBlobCache creates a new blob cache backed by dir.
func NewBlobCache(dir string, maxBytes int64, logger zerolog.Logger) (*BlobCache, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("maxBytes must be positive, got %d", maxBytes)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}

	cache := &BlobCache{
		dir:       dir,
		maxBytes:  maxBytes,
		log:       logger,
		evictChan: make(chan string, 1000), // Buffered to avoid blocking
		stopChan:  make(chan struct{}),
	}

	// Scan existing files to rebuild index
	if err := cache.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}

	// Start async eviction worker
	cache.wg.Add(1)
	go cache.evictionWorker()

	return cache, nil
}

// Close shuts down the cache and waits for pending operations.
func (c *BlobCache) Close() {
	close(c.stopChan)
	c.wg.Wait()
}

// Metrics returns current cache metrics.
func (c *BlobCache) Metrics() (hits, misses, evictions, entries, size int64) {
	return c.metrics.Hits.Load(), c.metrics.Misses.Load(), c.metrics.Evictions.Load(),
		c.metrics.Entries.Load(), c.metrics.SizeBytes.Load()
}

// HitRate returns the cache hit rate as a percentage.
func (c *BlobCache) HitRate() float64 {
	hits := c.metrics.Hits.Load()
	misses := c.metrics.Misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// scanExistingFiles scans the cache directory and rebuilds the index.
// Anything that is not a blob file (leftover temp files) is removed.
func (c *BlobCache) scanExistingFiles() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".sz") {
			os.Remove(filepath.Join(c.dir, name))
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // Skip inaccessible files
		}

		key := strings.TrimSuffix(name, ".sz")
		cacheEntry := &Entry{
			LocalPath: filepath.Join(c.dir, name),
			SizeBytes: info.Size(),
		}
		cacheEntry.LastAccess.Store(time.Now().UnixNano())

		c.index.Store(key, cacheEntry)
		c.metrics.SizeBytes.Add(info.Size())
		c.metrics.Entries.Add(1)
	}

	return nil
}

// Get retrieves the payload stored under key. A corrupt or missing blob is
// dropped from the index and reported as a miss.
func (c *BlobCache) Get(key string) ([]byte, bool) {
	entry, ok := c.index.Load(key)
	if !ok {
		c.metrics.Misses.Add(1)
		return nil, false
	}
	cacheEntry := entry.(*Entry)

	compressed, err := os.ReadFile(cacheEntry.LocalPath)
	if err != nil {
		c.dropEntry(key, cacheEntry)
		c.metrics.Misses.Add(1)
		return nil, false
	}

	payload, err := snappy.Decode(nil, compressed)
	if err != nil {
		c.log.Warn().Str("key", key).Msg("dropping corrupt cache entry")
		c.dropEntry(key, cacheEntry)
		c.metrics.Misses.Add(1)
		return nil, false
	}

	c.metrics.Hits.Add(1)
	cacheEntry.LastAccess.Store(time.Now().UnixNano())
	cacheEntry.AccessCount.Add(1)

	return payload, true
}

// Put stores payload under key. Keys are content-addressed, so an existing
// entry already holds the same payload and is left alone.
func (c *BlobCache) Put(key string, payload []byte) error {
	if len(payload) == 0 {
		return fmt.Errorf("empty payload for %s", key)
	}
	if _, ok := c.index.Load(key); ok {
		return nil
	}

	compressed := snappy.Encode(nil, payload)
	destPath := filepath.Join(c.dir, key+".sz")

	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to publish blob: %w", err)
	}

	size := int64(len(compressed))
	cacheEntry := &Entry{
		LocalPath: destPath,
		SizeBytes: size,
	}
	cacheEntry.LastAccess.Store(time.Now().UnixNano())
	cacheEntry.AccessCount.Store(1)

	c.index.Store(key, cacheEntry)
	c.metrics.SizeBytes.Add(size)
	c.metrics.Entries.Add(1)

	// Check if eviction needed and trigger async
	if c.metrics.SizeBytes.Load() > c.maxBytes {
		select {
		case c.evictChan <- key:
		default:
			// Channel full, eviction will happen on next check
		}
	}

	return nil
}

// evictionWorker processes eviction requests asynchronously.
func (c *BlobCache) evictionWorker() {
	defer c.wg.Done()

	evictTicker := time.NewTicker(5 * time.Second)
	defer evictTicker.Stop()

	for {
		select {
		case <-c.stopChan:
			// Final eviction before shutdown
			c.performEviction()
			return
		case key := <-c.evictChan:
			// Check if still over capacity and evict this entry
			if c.metrics.SizeBytes.Load() > c.maxBytes {
				c.tryEvictOne(key)
			}
		case <-evictTicker.C:
			// Periodic cleanup
			c.performEviction()
		}
	}
}

// performEviction trims the cache below 90% of capacity.
func (c *BlobCache) performEviction() {
	c.TrimTo(int64(float64(c.maxBytes) * 0.9))
}

// TrimTo evicts entries until the cache size drops to targetSize or below.
// Cold entries go first (lowest access count, then oldest access).
// Returns the number of evicted entries.
func (c *BlobCache) TrimTo(targetSize int64) int64 {
	if c.metrics.SizeBytes.Load() <= targetSize {
		return 0
	}

	type evictCandidate struct {
		key        string
		accessTime int64
		count      int64
	}
	var candidates []evictCandidate

	c.index.Range(func(key, value interface{}) bool {
		cacheEntry := value.(*Entry)
		candidates = append(candidates, evictCandidate{
			key:        key.(string),
			accessTime: cacheEntry.LastAccess.Load(),
			count:      cacheEntry.AccessCount.Load(),
		})
		return true
	})

	// Sort by access count, then by last access (LRU)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count < candidates[j].count
		}
		return candidates[i].accessTime < candidates[j].accessTime
	})

	var evicted int64
	for _, cand := range candidates {
		if c.metrics.SizeBytes.Load() <= targetSize {
			break
		}
		if c.tryEvictOne(cand.key) {
			evicted++
		}
	}
	return evicted
}

// tryEvictOne attempts to evict a single entry.
func (c *BlobCache) tryEvictOne(key string) bool {
	entry, ok := c.index.Load(key)
	if !ok {
		return false
	}

	cacheEntry := entry.(*Entry)
	if err := os.Remove(cacheEntry.LocalPath); err != nil {
		return false
	}

	c.metrics.SizeBytes.Add(-cacheEntry.SizeBytes)
	c.metrics.Entries.Add(-1)
	c.index.Delete(key)
	c.metrics.Evictions.Add(1)
	c.log.Debug().Str("key", key).Int64("freed_bytes", cacheEntry.SizeBytes).Msg("evicted cache entry")
	return true
}

// Remove deletes an entry from the cache.
func (c *BlobCache) Remove(key string) bool {
	entry, ok := c.index.LoadAndDelete(key)
	if !ok {
		return false
	}
	cacheEntry := entry.(*Entry)
	if err := os.Remove(cacheEntry.LocalPath); err == nil {
		c.metrics.SizeBytes.Add(-cacheEntry.SizeBytes)
		c.metrics.Entries.Add(-1)
		return true
	}
	return false
}

// dropEntry removes a broken entry without counting it as an eviction.
func (c *BlobCache) dropEntry(key string, cacheEntry *Entry) {
	if _, ok := c.index.LoadAndDelete(key); !ok {
		return
	}
	os.Remove(cacheEntry.LocalPath)
	c.metrics.SizeBytes.Add(-cacheEntry.SizeBytes)
	c.metrics.Entries.Add(-1)
}

// Clear removes all entries from the cache.
func (c *BlobCache) Clear() {
	c.index.Range(func(key, value interface{}) bool {
		c.Remove(key.(string))
		return true
	})
}

// Verify decompresses every blob and drops the ones that fail.
// Returns the number of entries checked and the number dropped.
func (c *BlobCache) Verify() (checked, dropped int64) {
	c.index.Range(func(key, value interface{}) bool {
		checked++
		cacheEntry := value.(*Entry)

		compressed, err := os.ReadFile(cacheEntry.LocalPath)
		if err == nil {
			_, err = snappy.Decode(nil, compressed)
		}
		if err != nil {
			c.log.Warn().Str("key", key.(string)).Msg("dropping corrupt cache entry")
			c.dropEntry(key.(string), cacheEntry)
			dropped++
		}
		return true
	})
	return checked, dropped
}

// Prune removes every entry the keep predicate rejects.
// Returns the number of entries removed.
func (c *BlobCache) Prune(keep func(key string) bool) int64 {
	var removed int64
	c.index.Range(func(key, value interface{}) bool {
		if !keep(key.(string)) {
			if c.Remove(key.(string)) {
				removed++
			}
		}
		return true
	})
	return removed
}

// Size returns the current cache size in bytes.
func (c *BlobCache) Size() int64 {
	return c.metrics.SizeBytes.Load()
}

// Count returns the number of entries in the cache.
func (c *BlobCache) Count() int64 {
	return c.metrics.Entries.Load()
}

// Capacity returns the maximum cache size in bytes.
func (c *BlobCache) Capacity() int64 {
	return c.maxBytes
}

// Usage returns the cache usage as a percentage.
func (c *BlobCache) Usage() float64 {
	return float64(c.metrics.SizeBytes.Load()) / float64(c.maxBytes) * 100
}
