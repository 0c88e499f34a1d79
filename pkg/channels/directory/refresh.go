package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xbyt4/hermes-agent/pkg/config"
	"github.com/0xbyt4/hermes-agent/pkg/domain"
	"github.com/0xbyt4/hermes-agent/pkg/logger"
)

// Lister enumerates the destinations a platform account can reach.
type Lister interface {
	ListChannels(ctx context.Context, pc *config.PlatformConfig) ([]Entry, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context, pc *config.PlatformConfig) ([]Entry, error)

func (f ListerFunc) ListChannels(ctx context.Context, pc *config.PlatformConfig) ([]Entry, error) {
	return f(ctx, pc)
}

// Refresher rebuilds the directory from the enabled platforms.
type Refresher struct {
	store   *Store
	loader  config.ConfigLoader
	listers map[domain.Platform]Lister
}

// NewRefresher wires a store to the platform listers.
func NewRefresher(store *Store, loader config.ConfigLoader, listers map[domain.Platform]Lister) *Refresher {
	return &Refresher{store: store, loader: loader, listers: listers}
}

// Refresh replaces each enabled platform's entries with a fresh listing.
// The configured home channel is always kept. A failing platform keeps its
// previous entries; the combined error is returned after all platforms ran.
func (r *Refresher) Refresh(ctx context.Context) error {
	cfg, err := r.loader.LoadGatewayConfig()
	if err != nil {
		return fmt.Errorf("directory: load config: %w", err)
	}

	var errs []error
	total := 0
	for _, p := range cfg.EnabledPlatforms() {
		pc, _ := cfg.Platform(p)

		var entries []Entry
		if lister, ok := r.listers[p]; ok {
			listed, err := lister.ListChannels(ctx, pc)
			if err != nil {
				logger.WarnCF("directory", "Platform listing failed", map[string]interface{}{
					"platform": string(p),
					"error":    err.Error(),
				})
				errs = append(errs, fmt.Errorf("%s: %w", p, err))
				continue
			}
			entries = listed
		}
		entries = withHome(entries, cfg.HomeChannel(p))

		if err := r.store.Replace(ctx, p, entries); err != nil {
			errs = append(errs, err)
			continue
		}
		total += len(entries)
	}

	logger.InfoCF("directory", "Directory refreshed", map[string]interface{}{
		"entries": total,
		"failed":  len(errs),
	})
	return errors.Join(errs...)
}

func withHome(entries []Entry, home *config.HomeChannel) []Entry {
	if home == nil {
		return entries
	}
	for i := range entries {
		if entries[i].ID == home.ChatID {
			entries[i].Home = true
			return entries
		}
	}
	name := home.Name
	if name == "" {
		name = home.ChatID
	}
	return append(entries, Entry{
		Platform:  home.Platform,
		ID:        home.ChatID,
		Name:      name,
		Kind:      KindGroup,
		Home:      true,
		UpdatedAt: time.Now().UTC(),
	})
}
