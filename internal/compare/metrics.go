package compare

import (
	"fmt"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// Aggregate computes the summary metrics for one car's reconciled rows.
// It recomputes from scratch on every call; there is no incremental state.
//
// Per-source diff percentages compare each non-reference source against
// source 0, counting only rows where both values are present.
func Aggregate(rows []model.Row, activeSources int) model.Metrics {
	m := model.Metrics{TotalFeatures: len(rows)}

	compareCounts := make([]int, activeSources)
	diffCounts := make([]int, activeSources)

	for _, row := range rows {
		for _, v := range row.Values {
			if v == "" {
				m.MissingCellCount++
			}
		}

		switch row.Class {
		case model.AgreementFull:
			m.SameCount++
		case model.AgreementPartial:
			m.PartialCount++
		case model.AgreementNone:
			m.DiffCount++
		}

		if len(row.Values) == 0 || row.Values[0] == "" {
			continue
		}
		ref := fold(row.Values[0])
		for i := 1; i < activeSources && i < len(row.Values); i++ {
			if row.Values[i] == "" {
				continue
			}
			compareCounts[i]++
			if fold(row.Values[i]) != ref {
				diffCounts[i]++
			}
		}
	}

	m.DiffPercents = make([]string, 0, activeSources-1)
	for i := 1; i < activeSources; i++ {
		m.DiffPercents = append(m.DiffPercents, DiffPercent(diffCounts[i], compareCounts[i]))
	}

	return m
}

// DiffPercent formats diffCount/compareCount as a one-decimal percentage.
// A zero denominator yields the literal "0%", never NaN or a panic.
func DiffPercent(diffCount, compareCount int) string {
	if compareCount == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.1f%%", float64(diffCount)/float64(compareCount)*100)
}
