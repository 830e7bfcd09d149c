// Package ingest parses multi-column CSV and XLSX sources into a dataset.
//
// Every source shares one layout: the header row names the cars (the first
// column is the feature column), and each following row carries one feature
// name plus that feature's value per car. The first source is the reference:
// its row order fixes the feature order and its header fixes the car list.
package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"golang.org/x/sync/errgroup"

	"github.com/bxl-digital/compare-cli/internal/model"
)

// File is one uploaded or on-disk source. Name's extension selects the
// parser; Data is the raw file content.
type File struct {
	Name string
	Data []byte
}

// Load parses three or four sources into a fresh dataset. Parsing fans out
// across sources; any failure rejects the whole batch and no partial dataset
// escapes. The error names the offending file.
func Load(ctx context.Context, files []File) (*model.Dataset, error) {
	if len(files) < model.MinSources || len(files) > model.MaxSources {
		return nil, eris.Errorf("ingest: need %d to %d source files, got %d",
			model.MinSources, model.MaxSources, len(files))
	}

	grids := make([][][]string, len(files))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return eris.Wrap(err, "ingest: cancelled")
			}
			grid, err := parseGrid(f)
			if err != nil {
				return err
			}
			grids[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := model.NewDataset()
	ds.HasFourth = len(files) == model.MaxSources
	for i, f := range files {
		ds.SourceNames = append(ds.SourceNames, f.Name)
		applyGrid(ds, i, grids[i])
	}
	return ds, nil
}

// LoadPaths reads the named files from disk and parses them as one batch.
func LoadPaths(ctx context.Context, paths []string) (*model.Dataset, error) {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read %s", p)
		}
		files = append(files, File{Name: filepath.Base(p), Data: data})
	}
	return Load(ctx, files)
}

// parseGrid turns one source file into a row/column matrix of trimmed cells.
func parseGrid(f File) ([][]string, error) {
	switch ext := strings.ToLower(filepath.Ext(f.Name)); ext {
	case ".csv":
		return parseCSV(bytes.NewReader(f.Data), f.Name)
	case ".xls", ".xlsx":
		return parseXLSX(f.Data, f.Name)
	default:
		return nil, eris.Errorf("ingest: %s: unsupported file extension %q (want .csv, .xls or .xlsx)", f.Name, ext)
	}
}

func parseCSV(r io.Reader, name string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var grid [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: %s: read row", name)
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		grid = append(grid, record)
	}
	return grid, nil
}

func parseXLSX(data []byte, name string) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: %s: open workbook", name)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("ingest: %s: workbook has no sheets", name)
	}

	var grid [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		grid = append(grid, cells)
	}
	return grid, nil
}

// applyGrid writes one parsed source into the dataset. Source 0 establishes
// the car list and the per-car feature order; rows with a blank feature cell
// are skipped.
func applyGrid(ds *model.Dataset, source int, grid [][]string) {
	if len(grid) == 0 {
		return
	}

	header := grid[0]
	cars := make([]string, 0, len(header))
	for _, car := range header[1:] {
		cars = append(cars, strings.TrimSpace(car))
	}

	if source == 0 {
		for _, car := range cars {
			if car == "" {
				continue
			}
			ds.Cars = append(ds.Cars, car)
			if ds.FeatureOrder[car] == nil {
				ds.FeatureOrder[car] = []string{}
			}
		}
	}

	for _, row := range grid[1:] {
		if len(row) == 0 {
			continue
		}
		feature := strings.TrimSpace(row[0])
		if feature == "" {
			continue
		}

		if source == 0 {
			for _, car := range cars {
				if car == "" {
					continue
				}
				if !containsString(ds.FeatureOrder[car], feature) {
					ds.FeatureOrder[car] = append(ds.FeatureOrder[car], feature)
				}
			}
		}

		for col := 1; col < len(row); col++ {
			car := ""
			if col < len(header) {
				car = strings.TrimSpace(header[col])
			}
			if car == "" {
				continue
			}
			ds.SetValue(source, car, feature, strings.TrimSpace(row[col]))
		}
	}
}

func containsString(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
