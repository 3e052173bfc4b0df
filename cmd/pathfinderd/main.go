package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tilepath/internal/config"
	"github.com/udisondev/tilepath/internal/data"
	"github.com/udisondev/tilepath/internal/db"
	"github.com/udisondev/tilepath/internal/feed"
	"github.com/udisondev/tilepath/internal/pathfinder"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))

	slog.Info("pathfinderd starting", "config", cfgPath, "log_level", cfg.LogLevel)

	ds, err := data.Load(ctx, cfg.Data, cfg.Cache.MaxBytes)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		client    pathfinder.Client = pathfinder.Unrestricted()
		searchLog *db.SearchLogRepository
		character *db.CharacterClient
	)
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		character, err = db.NewCharacterClient(ctx, db.NewCharacterRepository(database.Pool()), cfg.Database.Character)
		if err != nil {
			return fmt.Errorf("loading character: %w", err)
		}
		client = character
		if cfg.Database.LogSearches {
			searchLog = db.NewSearchLogRepository(database.Pool())
		}

		g.Go(func() error {
			slog.Info("starting character reload loop", "character", character.Name(), "interval", cfg.Database.ReloadInterval)
			return reloadLoop(gctx, character, cfg.Database.ReloadInterval)
		})
	} else {
		slog.Info("database disabled, all transports gated only by settings")
	}

	manager := pathfinder.NewManager(pathfinder.NewConfig(ds.Collision, ds.Transports, client, cfg.Pathfinder))
	defer manager.Close()

	snap := manager.Config().Refresh()
	slog.Info("pathfinder ready",
		"usable_transports", snap.Usable(),
		"cutoff", snap.Cutoff(),
		"avoid_wilderness", snap.AvoidWilderness())

	server := feed.NewServer(manager, cfg.Feed)
	if searchLog != nil {
		server.OnFinished(searchLogger(ctx, searchLog, character.Name()))
	}

	g.Go(func() error {
		slog.Info("starting feed server", "address", cfg.Feed.Addr())
		if err := server.Run(gctx, cfg.Feed.Addr()); err != nil {
			return fmt.Errorf("feed server: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// reloadLoop re-reads the character record until ctx is done. A failed
// reload keeps the previous record.
func reloadLoop(ctx context.Context, c *db.CharacterClient, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.Reload(ctx); err != nil {
				slog.Warn("character reload failed", "character", c.Name(), "err", err)
			}
		}
	}
}

func searchLogger(ctx context.Context, repo *db.SearchLogRepository, character string) feed.FinishFunc {
	return func(caller string, pf *pathfinder.Pathfinder) {
		progress := pf.Progress()
		stats, _ := pf.Stats()

		insertCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_, err := repo.Insert(insertCtx, db.SearchLogEntry{
			Character:         character,
			Start:             uint32(progress.Start),
			Target:            uint32(progress.Target),
			State:             progress.State.String(),
			PathLength:        progress.Length,
			Reached:           progress.Reached,
			NodesChecked:      stats.NodesChecked,
			TransportsChecked: stats.TransportsChecked,
			Elapsed:           stats.Elapsed,
		})
		if err != nil {
			slog.Warn("storing search log failed", "session", caller, "err", err)
		}
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
