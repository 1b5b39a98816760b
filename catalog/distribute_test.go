package catalog

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func gridResellers(n int) []Reseller {
	out := make([]Reseller, n)
	for i := range out {
		out[i] = Reseller{
			ID:        i + 1,
			Latitude:  -11 + float64(i%17) + 0.5,
			Longitude: 95 + float64((i*7)%46) + 0.5,
		}
	}
	return out
}

func ids(rs []Reseller) []int {
	out := make([]int, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestDistribute_UnderLimitUnchanged(t *testing.T) {
	in := gridResellers(10)
	out := Distribute(in, 300, rand.New(rand.NewPCG(1, 1)))
	require.Equal(t, in, out)
}

func TestDistribute_CapsAtLimitWithoutDuplicates(t *testing.T) {
	in := gridResellers(1000)
	out := Distribute(in, 300, rand.New(rand.NewPCG(7, 7)))
	require.Len(t, out, 300)

	seen := map[int]bool{}
	for _, id := range ids(out) {
		require.False(t, seen[id], "duplicate reseller %d", id)
		seen[id] = true
	}
}

func TestDistribute_DeterministicForSeed(t *testing.T) {
	in := gridResellers(500)
	a := Distribute(gridResellers(500), 50, rand.New(rand.NewPCG(42, 0)))
	b := Distribute(in, 50, rand.New(rand.NewPCG(42, 0)))
	require.Equal(t, ids(a), ids(b))

	c := Distribute(gridResellers(500), 50, rand.New(rand.NewPCG(43, 0)))
	require.NotEqual(t, ids(a), ids(c))
}

func TestDistribute_CoversEveryOccupiedCell(t *testing.T) {
	// two dense clusters and one lone reseller far away
	var in []Reseller
	for i := 0; i < 40; i++ {
		in = append(in, Reseller{ID: i + 1, Latitude: -6.2, Longitude: 106.8})
	}
	for i := 0; i < 40; i++ {
		in = append(in, Reseller{ID: 100 + i, Latitude: -7.25, Longitude: 112.75})
	}
	in = append(in, Reseller{ID: 999, Latitude: -2.5, Longitude: 140.7})

	out := Distribute(in, 9, rand.New(rand.NewPCG(3, 3)))
	require.Len(t, out, 9)
	require.Contains(t, ids(out), 999)
}

func TestDistribute_TopsUpFromRemainder(t *testing.T) {
	// everything in one cell: per-cell quota is the full limit
	in := make([]Reseller, 20)
	for i := range in {
		in[i] = Reseller{ID: i + 1, Latitude: 0, Longitude: 100}
	}
	out := Distribute(in, 16, rand.New(rand.NewPCG(5, 5)))
	require.Len(t, out, 16)
}
