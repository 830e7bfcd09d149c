package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bxl-digital/compare-cli/internal/model"
)

func TestCompare_Classification(t *testing.T) {
	tests := []struct {
		name     string
		values   []string
		wantKind model.Agreement
		wantRep  string
	}{
		{"all equal", []string{"AWD", "AWD", "AWD"}, model.AgreementFull, "AWD"},
		{"all equal ignoring case", []string{"AWD", "awd", "Awd"}, model.AgreementFull, "AWD"},
		{"reference casing preserved", []string{"yes", "Yes", "YES"}, model.AgreementFull, "yes"},
		{"all distinct", []string{"AWD", "FWD", "RWD"}, model.AgreementNone, ""},
		{"majority wins", []string{"AWD", "AWD", "FWD"}, model.AgreementPartial, "AWD"},
		{"majority wins ignoring case", []string{"FWD", "awd", "AWD"}, model.AgreementPartial, "awd"},
		{"tie breaks to first occurrence", []string{"A", "a", "B"}, model.AgreementPartial, "A"},
		{"later majority beats earlier minority", []string{"X", "Y", "y", "y"}, model.AgreementPartial, "Y"},
		{"pair among four", []string{"a", "b", "c", "b"}, model.AgreementPartial, "b"},
		{"one missing breaks full agreement", []string{"AWD", "AWD", ""}, model.AgreementPartial, "AWD"},
		{"missing cells never agree with each other", []string{"", "", "X"}, model.AgreementNone, ""},
		{"two values one missing", []string{"", "X"}, model.AgreementNone, ""},
		{"all missing", []string{"", "", ""}, model.AgreementNone, ""},
		{"missing pair with shared value", []string{"", "X", "x"}, model.AgreementPartial, "X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.values)
			assert.Equal(t, tt.wantKind, got.Class)
			assert.Equal(t, tt.wantRep, got.Representative)
		})
	}
}

func TestCompare_Idempotent(t *testing.T) {
	values := []string{"450", "450", "460", ""}
	first := Compare(values)
	second := Compare(values)
	assert.Equal(t, first, second)
}

func TestCompare_FullAgreementHasNoTooltip(t *testing.T) {
	got := Compare([]string{"Panoramic", "panoramic", "PANORAMIC"})
	assert.Equal(t, model.AgreementFull, got.Class)
	assert.Empty(t, got.Tooltip)
}

func TestCompare_Tooltip(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"reference missing", []string{"", "X", "Y"}, "Source 1 empty"},
		{"single divergent source", []string{"AWD", "AWD", "FWD"}, "Source 3 != Source 1"},
		{"multiple divergent sources", []string{"AWD", "FWD", "RWD"}, "Source 2 != Source 1, Source 3 != Source 1"},
		{"fourth source divergent", []string{"a", "a", "a", "b"}, "Source 4 != Source 1"},
		{"missing cells not reported as differences", []string{"AWD", "", "AWD", ""}, "No differences from Source 1 (ignoring case)"},
		{"case difference is not divergence", []string{"AWD", "awd", ""}, "No differences from Source 1 (ignoring case)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.values).Tooltip)
		})
	}
}

func TestClassifyRow(t *testing.T) {
	row := ClassifyRow("Drive type", []string{"AWD", "awd", "AWD"}, nil)
	assert.Equal(t, "Drive type", row.Feature)
	assert.Equal(t, model.AgreementFull, row.Class)
	assert.Equal(t, "AWD", row.FinalValue)
	assert.Empty(t, row.Tooltip)
}

func TestClassifyRow_OverrideWinsOverComputed(t *testing.T) {
	override := "picked by operator"
	row := ClassifyRow("Top speed", []string{"200", "210", "220"}, &override)

	// Classification still reflects the raw values; only the final changes.
	assert.Equal(t, model.AgreementNone, row.Class)
	assert.Equal(t, "picked by operator", row.FinalValue)
}

func TestClassifyRow_OverrideEmptyStringIsStillAnOverride(t *testing.T) {
	override := ""
	row := ClassifyRow("Heat pump", []string{"Yes", "Yes", "Yes"}, &override)
	assert.Equal(t, "", row.FinalValue)
}
