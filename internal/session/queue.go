// Package session orders a source set into a play queue and runs the draw/break
// state machine over it.
package session

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"croquis/internal/resource"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// OrderMode selects how Build orders a session queue.
type OrderMode int

const (
	OrderName OrderMode = iota
	OrderRandom
)

func (m OrderMode) String() string {
	if m == OrderRandom {
		return "random"
	}
	return "name"
}

// ParseOrderMode accepts "name" or "random", case-insensitively.
func ParseOrderMode(s string) (OrderMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "name", "":
		return OrderName, nil
	case "random":
		return OrderRandom, nil
	default:
		return OrderName, fmt.Errorf("unknown order mode %q (want name or random)", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m OrderMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *OrderMode) UnmarshalText(text []byte) error {
	parsed, err := ParseOrderMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// collationTag matches the locale the name ordering was tuned for.
var collationTag = language.Japanese

// Build returns a new queue over items in the requested order. items is never modified.
// rng is only used in OrderRandom; nil means a time-seeded source.
func Build(items []*resource.Item, mode OrderMode, rng *rand.Rand) []*resource.Item {
	if len(items) == 0 {
		return []*resource.Item{}
	}
	if mode == OrderRandom {
		return shuffled(items, rng)
	}
	return sortedByName(items)
}

func sortedByName(items []*resource.Item) []*resource.Item {
	out := append([]*resource.Item(nil), items...)
	// Collators keep internal buffers, so each sort gets its own.
	col := collate.New(collationTag, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics, collate.IgnoreWidth)
	sort.SliceStable(out, func(i, j int) bool {
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	return out
}

func shuffled(items []*resource.Item, rng *rand.Rand) []*resource.Item {
	pm := NewPermutationManager(len(items), rng)
	out := make([]*resource.Item, 0, len(items))
	for _, originalIdx := range pm.Order() {
		out = append(out, items[originalIdx])
	}
	return out
}
