// Package entity resolves human-readable entity names to the numeric ids
// the game server knows them by.
//
// The directory is built once from configuration and never mutated; an id
// of exactly 0 is the "configured but not filled in" sentinel and is
// rejected before any remote call is dispatched.
package entity

import (
	"errors"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

var (
	// ErrUnknown means the name is not present in the directory at all.
	ErrUnknown = errors.New("entity: unknown entity name")

	// ErrUnconfigured means the name exists but its id is still the 0
	// placeholder from the config template.
	ErrUnconfigured = errors.New("entity: entity id is not configured")
)

// suggestThreshold is the minimum Jaro-Winkler similarity for Suggest to
// offer a candidate. Below this, guesses are more confusing than helpful.
const suggestThreshold = 0.78

// Directory maps entity names to server-side numeric ids. Ids may be
// negative; the server derives them from a hash. Safe for concurrent
// reads; never written after construction.
type Directory struct {
	ids   map[string]int64
	names []string // sorted, for deterministic Suggest ties
}

// NewDirectory copies entries into a fresh Directory. The input map is not
// retained.
func NewDirectory(entries map[string]int64) *Directory {
	d := &Directory{
		ids:   make(map[string]int64, len(entries)),
		names: make([]string, 0, len(entries)),
	}
	for name, id := range entries {
		d.ids[name] = id
		d.names = append(d.names, name)
	}
	sort.Strings(d.names)
	return d
}

// Len reports the number of configured entities.
func (d *Directory) Len() int { return len(d.ids) }

// Names returns all configured entity names in sorted order.
func (d *Directory) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Resolve returns the numeric id for name. It fails with [ErrUnknown] for
// absent names and [ErrUnconfigured] for ids equal to 0. Purely local; no
// round trip is spent on a name that cannot succeed.
func (d *Directory) Resolve(name string) (int64, error) {
	id, ok := d.ids[name]
	if !ok {
		return 0, ErrUnknown
	}
	if id == 0 {
		return 0, ErrUnconfigured
	}
	return id, nil
}

// Suggest returns the configured name most similar to input, for "did you
// mean" hints on failed lookups. The second return is false when nothing
// scores above the similarity threshold.
func (d *Directory) Suggest(input string) (string, bool) {
	input = strings.ToLower(input)

	var (
		bestName  string
		bestScore float64
	)
	for _, name := range d.names {
		score := matchr.JaroWinkler(input, strings.ToLower(name), false)
		if score > bestScore {
			bestName, bestScore = name, score
		}
	}
	if bestScore < suggestThreshold {
		return "", false
	}
	return bestName, true
}
