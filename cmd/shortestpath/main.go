// shortestpath computes one path over the collision map and prints it.
//
// Usage:
//
//	go run ./cmd/shortestpath -from 3222,3218,0 -to 3165,3485,0
//	go run ./cmd/shortestpath -from 3222,3218,0 -to 2964,3378,0 -character zezima
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/udisondev/tilepath/internal/config"
	"github.com/udisondev/tilepath/internal/data"
	"github.com/udisondev/tilepath/internal/db"
	"github.com/udisondev/tilepath/internal/geo"
	"github.com/udisondev/tilepath/internal/pathfinder"
	"github.com/udisondev/tilepath/internal/transport"
)

type options struct {
	configPath string
	from, to   string
	character  string
	timeout    time.Duration
	cutoff     int
	watch      time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.Path(), "config file")
	flag.StringVar(&opts.from, "from", "", "start tile as x,y,level")
	flag.StringVar(&opts.to, "to", "", "target tile as x,y,level")
	flag.StringVar(&opts.character, "character", "", "gate transports by this stored character")
	flag.DurationVar(&opts.timeout, "timeout", time.Minute, "hard limit on search time")
	flag.IntVar(&opts.cutoff, "cutoff", -1, "ticks without progress before giving up (-1 keeps config)")
	flag.DurationVar(&opts.watch, "watch", 0, "log best path length at this interval while searching")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	start, err := parseCoord(opts.from)
	if err != nil {
		return fmt.Errorf("-from: %w", err)
	}
	target, err := parseCoord(opts.to)
	if err != nil {
		return fmt.Errorf("-to: %w", err)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	if opts.cutoff >= 0 {
		cfg.Pathfinder.CalculationCutoff = opts.cutoff
	}

	ds, err := data.Load(ctx, cfg.Data, cfg.Cache.MaxBytes)
	if err != nil {
		return err
	}

	var client pathfinder.Client = pathfinder.Unrestricted()
	if opts.character != "" {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		client, err = db.NewCharacterClient(ctx, db.NewCharacterRepository(database.Pool()), opts.character)
		if err != nil {
			return fmt.Errorf("loading character: %w", err)
		}
	}

	snap := pathfinder.NewConfig(ds.Collision, ds.Transports, client, cfg.Pathfinder).Refresh()

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	pf := pathfinder.Start(ctx, snap, start, target)
	waitSearch(pf, opts.watch)

	stats, _ := pf.Stats()
	progress := pf.Progress()
	slog.Info("search finished",
		"state", progress.State,
		"reached", progress.Reached,
		"length", progress.Length,
		"nodes", stats.NodesChecked,
		"transports", stats.TransportsChecked,
		"elapsed", stats.Elapsed)

	return writePath(out, pf.Path())
}

func waitSearch(pf *pathfinder.Pathfinder, watch time.Duration) {
	if watch <= 0 {
		<-pf.Done()
		return
	}
	ticker := time.NewTicker(watch)
	defer ticker.Stop()
	for {
		select {
		case <-pf.Done():
			return
		case <-ticker.C:
			p := pf.Progress()
			slog.Info("searching", "length", p.Length, "reached", p.Reached)
		}
	}
}

func writePath(out io.Writer, path []geo.Point) error {
	w := bufio.NewWriter(out)
	for _, p := range path {
		x, y, l := p.Unpack()
		fmt.Fprintf(w, "%d %d %d\n", x, y, l)
	}
	return w.Flush()
}

// parseCoord accepts "x,y,level" or "x y level".
func parseCoord(s string) (geo.Point, error) {
	if s == "" {
		return geo.InvalidPoint, fmt.Errorf("position required")
	}
	return transport.ParsePoint(strings.ReplaceAll(s, ",", " "))
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
