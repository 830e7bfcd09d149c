// Package compare implements the row reconciliation core: value agreement
// classification, representative selection, row assembly with override
// overlays, and aggregate metrics.
package compare

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// Result is the outcome of comparing one feature's values across sources.
type Result struct {
	Class Agreement
	// Representative is the value chosen under full or partial agreement,
	// original casing preserved. Empty under total disagreement.
	Representative string
	// Tooltip explains per-source divergence from the reference source.
	// Populated only for partial and total disagreement.
	Tooltip string
}

// Agreement aliases the model type so callers of the comparator alone do not
// need to import model.
type Agreement = model.Agreement

// fold case-folds a value for comparison. Original casing is never folded in
// outputs, only in the equality domain.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Compare classifies an ordered list of raw source values for one feature.
// An empty string denotes a missing value. Missing values are distinct from
// every other value, including other missing values at different positions,
// so two empty cells never agree with each other.
//
// Classification order:
//  1. full agreement: all values present and equal ignoring case;
//  2. total disagreement: no two positions share a folded value;
//  3. partial agreement: everything else.
//
// Compare is pure: identical input always yields identical output.
func Compare(values []string) Result {
	folded := make([]string, len(values))
	distinct := make(map[string]struct{}, len(values))
	missing := false
	for i, v := range values {
		if v == "" {
			missing = true
			// Positional placeholder keeps each empty cell unique.
			folded[i] = fmt.Sprintf("\x00missing:%d", i)
		} else {
			folded[i] = fold(v)
		}
		distinct[folded[i]] = struct{}{}
	}

	switch {
	case len(values) > 0 && !missing && len(distinct) == 1:
		return Result{Class: model.AgreementFull, Representative: values[0]}
	case len(distinct) == len(values):
		return Result{Class: model.AgreementNone, Tooltip: tooltip(values)}
	default:
		return Result{
			Class:          model.AgreementPartial,
			Representative: mostFrequent(values, folded),
			Tooltip:        tooltip(values),
		}
	}
}

// mostFrequent returns the original-case value whose folded form occurs most
// often among non-missing values. Ties break to the first occurrence in
// source order.
func mostFrequent(values, folded []string) string {
	freq := make(map[string]int, len(values))
	for i, v := range values {
		if v != "" {
			freq[folded[i]]++
		}
	}

	best := ""
	max := 0
	for i, v := range values {
		if v == "" {
			continue
		}
		if n := freq[folded[i]]; n > max {
			max = n
			best = v
		}
	}
	return best
}

// tooltip builds the divergence diagnostic against the reference source.
func tooltip(values []string) string {
	if len(values) == 0 || values[0] == "" {
		return "Source 1 empty"
	}

	ref := fold(values[0])
	var diffs []string
	for i := 1; i < len(values); i++ {
		if values[i] != "" && fold(values[i]) != ref {
			diffs = append(diffs, fmt.Sprintf("Source %d != Source 1", i+1))
		}
	}

	if len(diffs) == 0 {
		return "No differences from Source 1 (ignoring case)"
	}
	return strings.Join(diffs, ", ")
}
