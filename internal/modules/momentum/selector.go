package momentum

import (
	"fmt"
	"math"
	"sort"
)

// DefaultSelectionFraction selects the top 30% of the scored universe.
const DefaultSelectionFraction = 0.3

// MinSelection is the smallest usable subset: the optimizer needs at least
// two assets for a non-trivial covariance.
const MinSelection = 2

// SelectTop picks ceil(fraction x universe) tickers by descending composite
// score, never fewer than MinSelection. Ties are broken by lexical ticker
// order so selection is deterministic across runs.
func SelectTop(records []Record, fraction float64) ([]string, error) {
	if fraction <= 0 || fraction > 1 {
		fraction = DefaultSelectionFraction
	}
	if len(records) < MinSelection {
		return nil, fmt.Errorf("universe of %d scored assets is too small: need at least %d", len(records), MinSelection)
	}

	ranked := make([]Record, len(records))
	copy(ranked, records)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Composite != ranked[j].Composite {
			return ranked[i].Composite > ranked[j].Composite
		}
		return ranked[i].Ticker < ranked[j].Ticker
	})

	count := int(math.Ceil(fraction * float64(len(ranked))))
	if count < MinSelection {
		count = MinSelection
	}
	if count > len(ranked) {
		count = len(ranked)
	}

	selected := make([]string, count)
	for i := 0; i < count; i++ {
		selected[i] = ranked[i].Ticker
	}
	return selected, nil
}
