package data

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/tilepath/internal/geo"
)

// ErrDigestMismatch is returned when the collision dataset on disk does not
// match the configured digest.
var ErrDigestMismatch = errors.New("collision digest mismatch")

// collisionFiles lists region files in dir, sorted by name.
func collisionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading collision dir %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != geo.CollisionExt {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)
	return names, nil
}

// CollisionDigest returns the hex blake2b-256 digest of every region file in
// dir. File names take part in the digest so that moving a region changes it.
func CollisionDigest(dir string) (string, error) {
	names, err := collisionFiles(dir)
	if err != nil {
		return "", err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("creating digest: %w", err)
	}
	for _, name := range names {
		blob, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("reading collision %s: %w", name, err)
		}
		h.Write([]byte(name))
		h.Write([]byte{0})
		h.Write(blob)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// VerifyCollision compares the digest of dir with want (hex, case-insensitive).
func VerifyCollision(dir, want string) error {
	got, err := CollisionDigest(dir)
	if err != nil {
		return err
	}
	if !strings.EqualFold(got, strings.TrimSpace(want)) {
		return fmt.Errorf("%w: %s has %s, want %s", ErrDigestMismatch, dir, got, want)
	}
	return nil
}

// LoadCollision verifies dir against digest (skipped when empty) and loads it
// into a new engine bounded by cacheBytes.
func LoadCollision(dir string, cacheBytes int, digest string) (*geo.Engine, error) {
	if digest != "" {
		if err := VerifyCollision(dir, digest); err != nil {
			return nil, err
		}
	}
	e := geo.NewEngine(cacheBytes)
	if err := e.LoadCollision(dir); err != nil {
		return nil, err
	}
	return e, nil
}

// WriteCollision stores regions in dir as "<rx>_<ry>.gz" files.
func WriteCollision(dir string, regions []*geo.Region) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating collision dir %s: %w", dir, err)
	}
	for _, r := range regions {
		minX, minY, _, _ := r.Bounds()
		rx, ry := minX/geo.RegionSize, minY/geo.RegionSize

		blob, err := geo.CompressRegion(r)
		if err != nil {
			return fmt.Errorf("region %d_%d: %w", rx, ry, err)
		}
		name := filepath.Join(dir, fmt.Sprintf("%d_%d%s", rx, ry, geo.CollisionExt))
		if err := os.WriteFile(name, blob, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	return nil
}
