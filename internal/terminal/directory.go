// Package terminal resolves which physical payment terminals an operator may
// push a payment to. The provider knows which devices exist; local
// configuration knows which of them this installation has enabled. The
// directory intersects the two.
package terminal

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/restopay/terminalflow/internal/provider"
)

type Terminal struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Enabled  bool   `json:"enabled"`
}

// EnablementSource reports which terminal ids are enabled for this
// installation. The flags come from persisted configuration owned elsewhere.
type EnablementSource interface {
	EnabledIDs(ctx context.Context) (map[string]bool, error)
}

// ProviderDirectory is the slice of the provider API the directory needs.
type ProviderDirectory interface {
	ListTerminals(ctx context.Context) ([]provider.Terminal, error)
}

type Directory struct {
	source   EnablementSource
	provider ProviderDirectory
	logger   *slog.Logger
}

func NewDirectory(source EnablementSource, prov ProviderDirectory, logger *slog.Logger) *Directory {
	return &Directory{
		source:   source,
		provider: prov,
		logger:   logger,
	}
}

// ListEnabled returns the enabled terminals in stable (id-sorted) order.
// An empty result is not an error: it is a legitimate state the caller must
// render as "no terminals available".
func (d *Directory) ListEnabled(ctx context.Context) ([]Terminal, error) {
	enabled, err := d.source.EnabledIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading terminal enablement: %w", err)
	}

	listing, err := d.provider.ListTerminals(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing provider terminals: %w", err)
	}

	terminals := make([]Terminal, 0, len(listing))
	for _, t := range listing {
		if !enabled[t.ID] {
			continue
		}
		terminals = append(terminals, Terminal{
			ID:       t.ID,
			Name:     t.Name,
			Location: t.Location,
			Enabled:  true,
		})
	}

	sort.Slice(terminals, func(i, j int) bool {
		return terminals[i].ID < terminals[j].ID
	})

	d.logger.Debug("resolved enabled terminals",
		"provider_count", len(listing),
		"enabled_count", len(terminals))

	return terminals, nil
}

// StaticSource serves enablement flags from a fixed id list, typically
// sourced from environment configuration.
type StaticSource struct {
	ids map[string]bool
}

func NewStaticSource(ids []string) *StaticSource {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return &StaticSource{ids: m}
}

func (s *StaticSource) EnabledIDs(ctx context.Context) (map[string]bool, error) {
	return s.ids, nil
}
