package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/bxl-digital/compare-cli/internal/model"
)

func sampleRows() []model.Row {
	return []model.Row{
		{Feature: "Drive type", FinalValue: "AWD"},
		{Feature: "Range [km]", FinalValue: "500"},
		{Feature: `Screen "infotainment"`, FinalValue: `15"`},
	}
}

func TestCarCSV_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CarCSV(&buf, sampleRows()))

	// Every field is quote wrapped.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, `"Feature","Final Data"`, lines[0])
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, `"`))
		assert.True(t, strings.HasSuffix(line, `"`))
	}

	// Parsing the artifact back yields the same pairs in the same order.
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i, row := range sampleRows() {
		assert.Equal(t, []string{row.Feature, row.FinalValue}, records[i+1])
	}
}

func TestAllCarsCSV_UnionOrdering(t *testing.T) {
	featureOrder := map[string][]string{
		"A": {"F1", "F2"},
		"B": {"F2", "F3"},
	}
	resolve := func(car, feature string) (string, error) {
		return car + ":" + feature, nil
	}

	var buf bytes.Buffer
	require.NoError(t, AllCarsCSV(&buf, []string{"A", "B"}, featureOrder, resolve))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Feature", "A", "B"}, records[0])
	assert.Equal(t, []string{"F1", "A:F1", "B:F1"}, records[1])
	assert.Equal(t, []string{"F2", "A:F2", "B:F2"}, records[2])
	assert.Equal(t, []string{"F3", "A:F3", "B:F3"}, records[3])
}

func TestUnionFeatures(t *testing.T) {
	featureOrder := map[string][]string{
		"A": {"F1", "F2"},
		"B": {"F2", "F3"},
		"C": nil,
	}
	assert.Equal(t, []string{"F1", "F2", "F3"},
		UnionFeatures([]string{"A", "B", "C"}, featureOrder))
	assert.Equal(t, []string{"F2", "F3", "F1"},
		UnionFeatures([]string{"B", "A"}, featureOrder))
	assert.Empty(t, UnionFeatures(nil, featureOrder))
}

func TestCarXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CarXLSX(&buf, sampleRows()))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet["FinalData"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 4)
	assert.Equal(t, "Feature", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Drive type", sheet.Rows[1].Cells[0].String())
	assert.Equal(t, "AWD", sheet.Rows[1].Cells[1].String())
}

func TestAllCarsXLSX(t *testing.T) {
	featureOrder := map[string][]string{
		"A": {"F1"},
		"B": {"F1", "F2"},
	}
	resolve := func(car, feature string) (string, error) {
		if car == "A" && feature == "F2" {
			return "", nil
		}
		return "v", nil
	}

	var buf bytes.Buffer
	require.NoError(t, AllCarsXLSX(&buf, []string{"A", "B"}, featureOrder, resolve))

	f, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet, ok := f.Sheet["AllCars"]
	require.True(t, ok)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "F2", sheet.Rows[2].Cells[0].String())
	assert.Equal(t, "", sheet.Rows[2].Cells[1].String())
	assert.Equal(t, "v", sheet.Rows[2].Cells[2].String())
}

func TestFilenames(t *testing.T) {
	now := time.Date(2026, 8, 29, 14, 3, 59, 0, time.UTC)
	assert.Equal(t, "final_data_Model X_2026-08-29_14-03-59.csv",
		CarFilename("Model X", "csv", now))
	assert.Equal(t, "all_cars_side_by_side_2026-08-29_14-03-59.xlsx",
		AllCarsFilename("xlsx", now))
}
