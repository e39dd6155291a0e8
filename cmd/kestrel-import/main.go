// Import tool for loading Kestrel reference data from CSV.
//
// Usage:
//   go run ./cmd/kestrel-import -offers data/payment_methods.csv -fx data/historical_fx.csv
//
// This tool:
//   1. Opens the repository of the configured tier (KESTREL_TIER, KESTREL_DB_PATH)
//   2. Upserts every offer row and FX history sample
//   3. With -notify on the Pro tier, announces the changes over NATS so
//      running servers drop cached comparisons
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/repository"
)

func main() {
	offersPath := flag.String("offers", "", "Path to payment_methods.csv")
	fxPath := flag.String("fx", "", "Path to historical_fx.csv")
	dbPath := flag.String("db", "", "SQLite database path (overrides KESTREL_DB_PATH)")
	notify := flag.Bool("notify", false, "Publish update events after importing")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if *offersPath == "" && *fxPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: kestrel-import -offers <csv> [-fx <csv>] [-db <path>] [-notify]")
		os.Exit(2)
	}

	cfg := domain.DefaultConfig()
	if os.Getenv("KESTREL_TIER") == string(domain.TierPro) {
		cfg = domain.ProConfig()
	}
	if v := os.Getenv("KESTREL_DB_PATH"); v != "" {
		cfg.Repository.SQLitePath = v
	}
	if *dbPath != "" {
		cfg.Repository.SQLitePath = *dbPath
	}
	if v := os.Getenv("KESTREL_NATS_URL"); v != "" {
		cfg.EventBus.NATSUrl = v
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to open repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	start := time.Now()
	var offers, samples int

	if *offersPath != "" {
		offers, err = importFile(ctx, *offersPath, repo, repository.ImportOffers)
		if err != nil {
			slog.Error("failed to import offers", "path", *offersPath, "error", err)
			os.Exit(1)
		}
	}
	if *fxPath != "" {
		samples, err = importFile(ctx, *fxPath, repo, repository.ImportFXHistory)
		if err != nil {
			slog.Error("failed to import fx history", "path", *fxPath, "error", err)
			os.Exit(1)
		}
	}

	slog.Info("import complete",
		"offers", offers,
		"fx_samples", samples,
		"driver", cfg.Repository.Driver,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if *notify {
		if err := announce(ctx, cfg.EventBus, repo, offers > 0, samples > 0); err != nil {
			slog.Error("failed to announce import", "error", err)
			os.Exit(1)
		}
	}
}

func importFile(ctx context.Context, path string, repo domain.Repository, load func(context.Context, domain.Repository, io.Reader) (int, error)) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return load(ctx, repo, f)
}

// announce publishes one offers event per corridor and one FX event, which is
// what a running server's invalidation worker listens for.
func announce(ctx context.Context, cfg domain.EventBusConfig, repo domain.Repository, offers, fx bool) error {
	b, err := bus.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect event bus: %w", err)
	}
	defer b.Close()

	if offers {
		corridors, err := repo.ListCorridors(ctx)
		if err != nil {
			return fmt.Errorf("failed to list corridors: %w", err)
		}
		for _, c := range corridors {
			event := domain.OffersUpdatedEvent{SenderCountry: c.SenderCountry, ReceiverCountry: c.ReceiverCountry}
			if err := bus.PublishJSON(ctx, b, domain.TopicOffersUpdated, event); err != nil {
				return err
			}
		}
		slog.Info("announced offer updates", "corridors", len(corridors))
	}

	if fx {
		if err := bus.PublishJSON(ctx, b, domain.TopicFXUpdated, domain.FXUpdatedEvent{}); err != nil {
			return err
		}
		slog.Info("announced fx history update")
	}
	return nil
}
