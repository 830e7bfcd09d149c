// Package export writes the consolidated comparison result to CSV and XLSX
// artifacts, either for a single car (Feature, Final Data) or for all cars
// side by side.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// FinalValueFunc resolves the final value for one (car, feature) pair. The
// all-cars writers call it for every cell, so it must fall back to the
// computed representative when no override exists; otherwise cars the
// operator never opened would export blank.
type FinalValueFunc func(car, feature string) (string, error)

// CarCSV writes the two-column single-car export. Every field is
// double-quote wrapped.
func CarCSV(w io.Writer, rows []model.Row) error {
	if err := writeQuotedLine(w, []string{"Feature", "Final Data"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeQuotedLine(w, []string{row.Feature, row.FinalValue}); err != nil {
			return err
		}
	}
	return nil
}

// AllCarsCSV writes the side-by-side export: one column per car, one row per
// feature of the union feature list.
func AllCarsCSV(w io.Writer, cars []string, featureOrder map[string][]string, resolve FinalValueFunc) error {
	if err := writeQuotedLine(w, append([]string{"Feature"}, cars...)); err != nil {
		return err
	}
	for _, feature := range UnionFeatures(cars, featureOrder) {
		line := make([]string, 0, len(cars)+1)
		line = append(line, feature)
		for _, car := range cars {
			v, err := resolve(car, feature)
			if err != nil {
				return eris.Wrapf(err, "export: resolve %s/%s", car, feature)
			}
			line = append(line, v)
		}
		if err := writeQuotedLine(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CarXLSX writes the single-car export as a workbook with one FinalData
// sheet.
func CarXLSX(w io.Writer, rows []model.Row) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("FinalData")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, []string{"Feature", "Final Data"})
	for _, row := range rows {
		addRow(sheet, []string{row.Feature, row.FinalValue})
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

// AllCarsXLSX writes the side-by-side export as a workbook with one AllCars
// sheet.
func AllCarsXLSX(w io.Writer, cars []string, featureOrder map[string][]string, resolve FinalValueFunc) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("AllCars")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	addRow(sheet, append([]string{"Feature"}, cars...))
	for _, feature := range UnionFeatures(cars, featureOrder) {
		line := make([]string, 0, len(cars)+1)
		line = append(line, feature)
		for _, car := range cars {
			v, err := resolve(car, feature)
			if err != nil {
				return eris.Wrapf(err, "export: resolve %s/%s", car, feature)
			}
			line = append(line, v)
		}
		addRow(sheet, line)
	}
	return eris.Wrap(f.Write(w), "export: write workbook")
}

// UnionFeatures merges the cars' feature lists in first-encountered order,
// scanning cars in their given order.
func UnionFeatures(cars []string, featureOrder map[string][]string) []string {
	seen := make(map[string]struct{})
	var union []string
	for _, car := range cars {
		for _, feature := range featureOrder[car] {
			if _, ok := seen[feature]; ok {
				continue
			}
			seen[feature] = struct{}{}
			union = append(union, feature)
		}
	}
	return union
}

// CarFilename names a single-car artifact, e.g.
// final_data_Model X_2026-08-29_14-03-59.csv.
func CarFilename(car, ext string, now time.Time) string {
	return fmt.Sprintf("final_data_%s_%s.%s", car, timestamp(now), ext)
}

// AllCarsFilename names a side-by-side artifact.
func AllCarsFilename(ext string, now time.Time) string {
	return fmt.Sprintf("all_cars_side_by_side_%s.%s", timestamp(now), ext)
}

func timestamp(now time.Time) string {
	return now.UTC().Format("2006-01-02_15-04-05")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

func writeQuotedLine(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return eris.Wrap(err, "export: write line")
}
