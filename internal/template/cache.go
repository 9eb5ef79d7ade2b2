package template

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/slidesmith/slidesmith/internal/types"
)

// cacheEntry holds one analyzed file version. The modification time
// invalidates the entry when the template file is replaced in place.
type cacheEntry struct {
	modTime  time.Time
	analysis *types.TemplateAnalysis
}

// Cache memoizes template analysis, one entry per path so a replaced file
// evicts its superseded version. Safe for concurrent use; an analysis already
// in flight for the same file version is not deduplicated, the last writer
// wins, which is harmless because results are identical.
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]cacheEntry
	analyzer Analyzer
}

// NewCache creates an empty analysis cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// GetOrAnalyze returns the cached analysis for the file version at path, or
// analyzes and caches it.
func (c *Cache) GetOrAnalyze(path, templateID string) (*types.TemplateAnalysis, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat template: %w", err)
	}

	c.mu.RLock()
	cached, ok := c.entries[path]
	c.mu.RUnlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.analysis, nil
	}

	analysis, err := c.analyzer.Analyze(path, templateID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{modTime: info.ModTime(), analysis: analysis}
	c.mu.Unlock()
	return analysis, nil
}

// Clear drops all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
