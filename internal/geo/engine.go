package geo

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/sync/errgroup"
)

// CollisionExt is the file extension of stored region blobs ("<rx>_<ry>.gz").
const CollisionExt = ".gz"

// Engine is the collision map: compressed region blobs plus a bounded cache of
// decoded regions. Blobs are added during load and never modified afterwards;
// queries are safe from any number of goroutines.
type Engine struct {
	mu     sync.RWMutex
	blobs  map[uint32][]byte
	cache  *regionCache
	loaded atomic.Int32
}

// NewEngine creates an empty collision map. maxBytes bounds resident decoded
// regions (DefaultCacheBytes when <= 0).
func NewEngine(maxBytes int) *Engine {
	return &Engine{
		blobs: make(map[uint32][]byte),
		cache: newRegionCache(maxBytes),
	}
}

// AddRegion stores a compressed region blob after validating that it decodes.
func (e *Engine) AddRegion(rx, ry int, blob []byte) error {
	if rx < 0 || rx >= RegionsX || ry < 0 || ry >= RegionsY {
		return fmt.Errorf("region %d_%d out of range", rx, ry)
	}
	payload, err := Decompress(blob)
	if err != nil {
		return fmt.Errorf("region %d_%d: %w", rx, ry, err)
	}
	if _, err := DecodeRegion(payload); err != nil {
		return fmt.Errorf("region %d_%d: %w", rx, ry, err)
	}

	e.mu.Lock()
	e.blobs[RegionKey(rx, ry)] = blob
	e.mu.Unlock()
	e.loaded.Add(1)
	return nil
}

// LoadCollision loads all "<rx>_<ry>.gz" files from dir.
// Any unreadable or malformed region aborts the load.
func (e *Engine) LoadCollision(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading collision dir %s: %w", dir, err)
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != CollisionExt {
			continue
		}

		var rx, ry int
		base := name[:len(name)-len(ext)]
		if _, err := fmt.Sscanf(base, "%d_%d", &rx, &ry); err != nil {
			slog.Warn("skip collision file (bad name)", "file", name)
			continue
		}

		g.Go(func() error {
			blob, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				return fmt.Errorf("reading collision %s: %w", name, err)
			}
			if err := e.AddRegion(rx, ry, blob); err != nil {
				return fmt.Errorf("parsing collision %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("collision map loaded", "regions", e.loaded.Load(), "dir", dir)
	return nil
}

// RegionCount returns the number of stored (non-synthesized) regions.
func (e *Engine) RegionCount() int {
	return int(e.loaded.Load())
}

// Stats returns region residency counters.
func (e *Engine) Stats() CacheStats {
	return e.cache.stats()
}

// View returns a single-goroutine reader over the map.
func (e *Engine) View() *View {
	return &View{engine: e}
}

// IsBlocked reports whether no cardinal move leaves the tile.
func (e *Engine) IsBlocked(x, y, level int) bool {
	return e.View().IsBlocked(x, y, level)
}

// region returns the decoded region for key, synthesizing a fully blocked one
// when no data is stored.
func (e *Engine) region(key uint32) *Region {
	return e.cache.get(key, func() *Region {
		e.mu.RLock()
		blob, ok := e.blobs[key]
		e.mu.RUnlock()

		rx, ry := RegionFromKey(key)
		if !ok {
			return NewBlockedRegion(rx, ry)
		}
		payload, err := Decompress(blob)
		if err == nil {
			var r *Region
			if r, err = DecodeRegion(payload); err == nil {
				return r
			}
		}
		slog.Warn("region decode failed, treating as blocked", "rx", rx, "ry", ry, "err", err)
		return NewBlockedRegion(rx, ry)
	})
}

// Compress gzips a region payload for storage.
func Compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing region: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing region: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates a stored region blob.
func Decompress(blob []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("decompressing region: %w", err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing region: %w", err)
	}
	return payload, nil
}

// CompressRegion encodes and compresses a region.
func CompressRegion(r *Region) ([]byte, error) {
	return Compress(r.Encode())
}
