// Package directory resolves raw broker names to canonical trader
// names. Every report goes through the same resolution pass so the
// numbers agree between views.
package directory

import (
	"strings"

	"github.com/username/corretaje/src/models"
)

// Directory is an immutable raw-name -> canonical-name lookup built
// from the trader and alias registries. Matching is case-insensitive.
// Resolve is total: a name not present in the registry is its own
// canonical identity, so unregistered brokers still show up in reports.
type Directory struct {
	canonical map[string]string
}

// Build constructs a directory from the full trader and alias sets.
// Every canonical trader name maps to itself; each alias maps to the
// name of its owning trader. Aliases pointing at unknown trader IDs are
// ignored, as are aliases that collide with a canonical trader name:
// the self-mapping always wins, so one trader's registry entry can
// never redirect another trader's volume.
func Build(traders []models.Trader, aliases []models.TraderAlias) *Directory {
	canonical := make(map[string]string, len(traders)+len(aliases))
	byID := make(map[int64]string, len(traders))
	selfKeys := make(map[string]bool, len(traders))

	for _, t := range traders {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		byID[t.ID] = name
		key := strings.ToLower(name)
		canonical[key] = name
		selfKeys[key] = true
	}

	for _, a := range aliases {
		owner, ok := byID[a.TraderID]
		if !ok {
			continue
		}
		alias := strings.TrimSpace(a.Alias)
		if alias == "" {
			continue
		}
		key := strings.ToLower(alias)
		if selfKeys[key] {
			continue
		}
		canonical[key] = owner
	}

	return &Directory{canonical: canonical}
}

// Resolve returns the canonical trader name for a raw broker name, or
// the raw name unchanged when it is unknown. Resolve is idempotent.
func (d *Directory) Resolve(rawName string) string {
	trimmed := strings.TrimSpace(rawName)
	if name, ok := d.canonical[strings.ToLower(trimmed)]; ok {
		return name
	}
	return trimmed
}

// Len reports the number of known names, canonical plus aliases.
func (d *Directory) Len() int {
	return len(d.canonical)
}
