package selection

import (
	"github.com/sdejongh/doccompare/pkg/models"
)

// Snapshot is a point-in-time copy of both pools and their selections
type Snapshot struct {
	Pools    [2]models.DocumentPool
	Selected [2][]string
}

// Total returns the number of selected documents
func (s Snapshot) Total() int {
	return len(s.Selected[First]) + len(s.Selected[Second])
}

// Pair resolves the two ids to compare. Three shapes are accepted:
// two from the first pool, two from the second pool, or one from each.
func (s Snapshot) Pair() (firstID, secondID string, err error) {
	first, second := s.Selected[First], s.Selected[Second]
	switch {
	case len(first) == 2 && len(second) == 0:
		return first[0], first[1], nil
	case len(first) == 0 && len(second) == 2:
		return second[0], second[1], nil
	case len(first) == 1 && len(second) == 1:
		return first[0], second[0], nil
	default:
		return "", "", models.ErrSelectExactlyTwo
	}
}

// Lookup finds a document entry in either pool's cache
func (s Snapshot) Lookup(detailsID string) (models.DocumentEntry, bool) {
	for _, pool := range s.Pools {
		if entry, ok := pool.Find(detailsID); ok {
			return entry, true
		}
	}
	return models.DocumentEntry{}, false
}
