package auction

import (
	"math/rand/v2"
	"sort"

	"github.com/mcdev12/auctionroom/go/internal/models"
)

// Catalog resolves a lot id to its static attributes.
type Catalog interface {
	Lot(id string) (models.Lot, bool)
}

// NextLot picks the next PENDING lot: the lowest set number wins and ties are broken
// uniformly at random. Candidates are sorted before drawing so a seeded rng always
// picks the same lot for the same pool.
func NextLot(pool map[string]models.PoolEntry, lots Catalog, rng *rand.Rand) (string, bool) {
	bestSet := 0
	var candidates []string
	for id, entry := range pool {
		if entry.Status != models.LotStatusPending {
			continue
		}
		lot, ok := lots.Lot(id)
		if !ok {
			continue
		}
		switch {
		case len(candidates) == 0 || lot.SetNumber < bestSet:
			bestSet = lot.SetNumber
			candidates = append(candidates[:0], id)
		case lot.SetNumber == bestSet:
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[rng.IntN(len(candidates))], true
}
