package complexity

import (
	"testing"

	"github.com/perfgo/apibench/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	records := Score()
	require.Len(t, records, 8)

	var rest, gql int
	for _, r := range records {
		switch r.Transport {
		case model.TransportREST:
			rest++
		case model.TransportGraphQL:
			gql++
		}
		assert.InDelta(t, (r.MaintainabilityScore+r.ReadabilityScore)/2, r.TotalScore, 1e-9, r.Component)
	}
	assert.Equal(t, 4, rest)
	assert.Equal(t, 4, gql)

	// callers cannot modify the table
	records[0].LinesOfCode = 0
	assert.Equal(t, 85, Score()[0].LinesOfCode)
}

func TestSummarize(t *testing.T) {
	s := Summarize(Score())

	assert.Equal(t, 245, s.REST.TotalLines)
	assert.Equal(t, 425, s.GraphQL.TotalLines)
	assert.Equal(t, 7.0, s.REST.AvgCyclomatic)
	assert.Equal(t, 9.0, s.GraphQL.AvgCyclomatic)
	assert.InDelta(t, 7.875, s.REST.AvgMaintainability, 1e-9)
	assert.InDelta(t, 6.875, s.GraphQL.AvgMaintainability, 1e-9)
	assert.InDelta(t, 8.25, s.REST.AvgReadability, 1e-9)
	assert.InDelta(t, 6.75, s.GraphQL.AvgReadability, 1e-9)
	assert.InDelta(t, 8.0625, s.REST.AvgTotalScore, 1e-9)
	assert.InDelta(t, 6.8125, s.GraphQL.AvgTotalScore, 1e-9)

	empty := Summarize(nil)
	assert.Zero(t, empty.REST.AvgCyclomatic)
	assert.Equal(t, model.TransportGraphQL, empty.GraphQL.Transport)
}
