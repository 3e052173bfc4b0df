package data

import (
	"context"
	"log/slog"

	"github.com/udisondev/tilepath/internal/transport"
)

// LoadTransports reads every category file in dir and logs per-category counts.
func LoadTransports(ctx context.Context, dir string) (*transport.Set, error) {
	set, err := transport.LoadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	for c, n := range set.Categories() {
		slog.Debug("transport category", "category", c, "count", n)
	}
	return set, nil
}
