package catalog

import (
	"math"
	"math/rand/v2"
)

// Bounds is a latitude/longitude rectangle.
type Bounds struct {
	LatMin, LatMax float64
	LngMin, LngMax float64
}

// Indonesia approximates the area resellers are spread over.
var Indonesia = Bounds{LatMin: -11, LatMax: 6, LngMin: 95, LngMax: 141}

type gridCell struct {
	lat, lng int
}

// Distribute picks at most limit resellers so that every occupied cell of a
// ceil(sqrt(limit)) square grid over Indonesia is represented. Each cell
// contributes up to max(1, limit/occupiedCells) shuffled members, any shortfall
// is filled from the shuffled remainder. Input that already fits is returned
// unchanged.
func Distribute(resellers []Reseller, limit int, rng *rand.Rand) []Reseller {
	if len(resellers) <= limit {
		return resellers
	}
	if limit <= 0 {
		return nil
	}

	b := Indonesia
	gridSize := int(math.Ceil(math.Sqrt(float64(limit))))
	latStep := (b.LatMax - b.LatMin) / float64(gridSize)
	lngStep := (b.LngMax - b.LngMin) / float64(gridSize)

	// cells keep first-seen order so a fixed seed gives a fixed result
	var order []gridCell
	cells := make(map[gridCell][]int)
	for i, r := range resellers {
		key := gridCell{
			lat: int(math.Floor((r.Latitude - b.LatMin) / latStep)),
			lng: int(math.Floor((r.Longitude - b.LngMin) / lngStep)),
		}
		if _, ok := cells[key]; !ok {
			order = append(order, key)
		}
		cells[key] = append(cells[key], i)
	}

	perCell := max(1, limit/len(order))

	selected := make([]Reseller, 0, limit)
	used := make([]bool, len(resellers))
	for _, key := range order {
		members := cells[key]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		for _, idx := range members[:min(perCell, len(members))] {
			selected = append(selected, resellers[idx])
			used[idx] = true
		}
	}

	if len(selected) < limit {
		remaining := make([]int, 0, len(resellers)-len(selected))
		for i := range resellers {
			if !used[i] {
				remaining = append(remaining, i)
			}
		}
		rng.Shuffle(len(remaining), func(i, j int) {
			remaining[i], remaining[j] = remaining[j], remaining[i]
		})
		for _, idx := range remaining[:min(limit-len(selected), len(remaining))] {
			selected = append(selected, resellers[idx])
		}
	}

	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
