// Package complexity holds the curated structural complexity table of the
// two client integrations. The figures are reporting data; nothing here
// analyses source code.
package complexity

import "github.com/perfgo/apibench/model"

var table = []model.ComplexityRecord{
	{
		Transport: model.TransportREST, Component: "Service Interface",
		LinesOfCode: 85, CyclomaticComplexity: 8, CognitiveComplexity: 6, ErrorHandlingLines: 0, DocLines: 5,
		Difficulty: model.DifficultyEasy, MaintainabilityScore: 8.5, ReadabilityScore: 9.0, TotalScore: 8.75,
	},
	{
		Transport: model.TransportREST, Component: "HTTP Client Provider",
		LinesOfCode: 25, CyclomaticComplexity: 3, CognitiveComplexity: 4, ErrorHandlingLines: 0, DocLines: 3,
		Difficulty: model.DifficultyEasy, MaintainabilityScore: 8.0, ReadabilityScore: 8.5, TotalScore: 8.25,
	},
	{
		Transport: model.TransportREST, Component: "Repository (REST Methods)",
		LinesOfCode: 120, CyclomaticComplexity: 15, CognitiveComplexity: 12, ErrorHandlingLines: 25, DocLines: 8,
		Difficulty: model.DifficultyMedium, MaintainabilityScore: 7.0, ReadabilityScore: 7.5, TotalScore: 7.25,
	},
	{
		Transport: model.TransportREST, Component: "Response Extension",
		LinesOfCode: 15, CyclomaticComplexity: 2, CognitiveComplexity: 2, ErrorHandlingLines: 5, DocLines: 2,
		Difficulty: model.DifficultyEasy, MaintainabilityScore: 8.0, ReadabilityScore: 8.0, TotalScore: 8.0,
	},
	{
		Transport: model.TransportGraphQL, Component: "GraphQL Client Provider",
		LinesOfCode: 15, CyclomaticComplexity: 2, CognitiveComplexity: 3, ErrorHandlingLines: 0, DocLines: 2,
		Difficulty: model.DifficultyEasy, MaintainabilityScore: 8.5, ReadabilityScore: 9.0, TotalScore: 8.75,
	},
	{
		Transport: model.TransportGraphQL, Component: "GraphQL Query Files",
		LinesOfCode: 80, CyclomaticComplexity: 6, CognitiveComplexity: 8, ErrorHandlingLines: 0, DocLines: 10,
		Difficulty: model.DifficultyMedium, MaintainabilityScore: 7.5, ReadabilityScore: 8.0, TotalScore: 7.75,
	},
	{
		Transport: model.TransportGraphQL, Component: "Repository (GraphQL Methods)",
		LinesOfCode: 130, CyclomaticComplexity: 18, CognitiveComplexity: 15, ErrorHandlingLines: 30, DocLines: 10,
		Difficulty: model.DifficultyHard, MaintainabilityScore: 6.5, ReadabilityScore: 6.0, TotalScore: 6.25,
	},
	{
		Transport: model.TransportGraphQL, Component: "Generated GraphQL Classes",
		LinesOfCode: 200, CyclomaticComplexity: 10, CognitiveComplexity: 12, ErrorHandlingLines: 15, DocLines: 5,
		Difficulty: model.DifficultyHard, MaintainabilityScore: 5.0, ReadabilityScore: 4.0, TotalScore: 4.5,
	},
}

// Score returns the complexity table, REST components first.
func Score() []model.ComplexityRecord {
	out := make([]model.ComplexityRecord, len(table))
	copy(out, table)
	return out
}

// TransportSummary aggregates the records of one transport.
type TransportSummary struct {
	Transport          model.Transport `json:"transport"`
	Components         int             `json:"components"`
	TotalLines         int             `json:"total_lines"`
	AvgCyclomatic      float64         `json:"avg_cyclomatic"`
	AvgMaintainability float64         `json:"avg_maintainability"`
	AvgReadability     float64         `json:"avg_readability"`
	AvgTotalScore      float64         `json:"avg_total_score"`
}

type Summary struct {
	REST    TransportSummary `json:"rest"`
	GraphQL TransportSummary `json:"graphql"`
}

func Summarize(records []model.ComplexityRecord) Summary {
	return Summary{
		REST:    summarize(records, model.TransportREST),
		GraphQL: summarize(records, model.TransportGraphQL),
	}
}

func summarize(records []model.ComplexityRecord, t model.Transport) TransportSummary {
	s := TransportSummary{Transport: t}
	var cyc, maint, read, total float64
	for _, r := range records {
		if r.Transport != t {
			continue
		}
		s.Components++
		s.TotalLines += r.LinesOfCode
		cyc += float64(r.CyclomaticComplexity)
		maint += r.MaintainabilityScore
		read += r.ReadabilityScore
		total += r.TotalScore
	}
	if s.Components == 0 {
		return s
	}
	n := float64(s.Components)
	s.AvgCyclomatic = cyc / n
	s.AvgMaintainability = maint / n
	s.AvgReadability = read / n
	s.AvgTotalScore = total / n
	return s
}
