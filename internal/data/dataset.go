// Package data loads the static datasets a pathfinder needs: the collision
// map and the transport declarations.
package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilepath/internal/config"
	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/transport"
)

// Dataset is the loaded, read-only world data.
type Dataset struct {
	Collision  *geo.Engine
	Transports *transport.Set
}

// Load reads collision and transports concurrently.
func Load(ctx context.Context, cfg config.DataConfig, cacheBytes int) (*Dataset, error) {
	began := time.Now()
	ds := &Dataset{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := LoadCollision(cfg.CollisionDir, cacheBytes, cfg.CollisionDigest)
		if err != nil {
			return fmt.Errorf("collision: %w", err)
		}
		ds.Collision = e
		return nil
	})
	g.Go(func() error {
		set, err := LoadTransports(ctx, cfg.TransportsDir)
		if err != nil {
			return fmt.Errorf("transports: %w", err)
		}
		ds.Transports = set
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading dataset: %w", err)
	}

	slog.Info("dataset loaded",
		"regions", ds.Collision.RegionCount(),
		"transports", ds.Transports.Len(),
		"elapsed", time.Since(began))
	return ds, nil
}
