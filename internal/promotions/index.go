package promotions

import (
	"sort"
	"sync"
)

// Index mirrors the active promotions keyed by (category, size). Lookups run
// on request goroutines while a feed refreshes the index in the background.
type Index struct {
	mu     sync.RWMutex
	byKey  map[Key]Promotion
	active []Promotion
}

func NewIndex() *Index {
	return &Index{byKey: map[Key]Promotion{}}
}

// Refresh rebuilds the index from a full promotion listing. Inactive entries
// and entries with an unknown size are dropped; for duplicate keys the first
// entry in source order wins. It returns the number of indexed promotions.
func (i *Index) Refresh(promos []Promotion) int {
	byKey := make(map[Key]Promotion, len(promos))
	active := make([]Promotion, 0, len(promos))
	for _, p := range promos {
		if !p.Active || !p.Size.Valid() || p.Category == "" {
			continue
		}
		if _, dup := byKey[p.Key()]; dup {
			continue
		}
		byKey[p.Key()] = p
		active = append(active, p)
	}

	i.mu.Lock()
	i.byKey = byKey
	i.active = active
	i.mu.Unlock()
	return len(active)
}

// Lookup returns the promotion for (category, size).
func (i *Index) Lookup(category string, size Size) (Promotion, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	p, ok := i.byKey[Key{Category: category, Size: size}]
	return p, ok
}

// Active returns the indexed promotions sorted by category then size.
func (i *Index) Active() []Promotion {
	i.mu.RLock()
	out := make([]Promotion, len(i.active))
	copy(out, i.active)
	i.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Category != out[b].Category {
			return out[a].Category < out[b].Category
		}
		return out[a].Size < out[b].Size
	})
	return out
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byKey)
}
