package backend

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/bxl-digital/compare-cli/internal/model"
	"github.com/bxl-digital/compare-cli/internal/registry"
)

// FeatureEntry is one feature of the save payload: typed final value plus
// the typed per-source values it was reconciled from.
type FeatureEntry struct {
	Key        string `json:"key"`
	Label      string `json:"label"`
	Value      any    `json:"value"`
	FileValues []any  `json:"fileValues"`
}

// SavePayload is the body of the save endpoint: per-category feature entry
// arrays plus the flattened per-category spec maps.
type SavePayload struct {
	Country  string                    `json:"country"`
	Brand    string                    `json:"brand"`
	Model    string                    `json:"model"`
	Features map[string][]FeatureEntry `json:"features"`
	Specs    map[string]map[string]any `json:"specs"`
}

// Flatten converts a stored remote comparison into the dataset shape used
// for file-uploaded data, so both ingestion paths feed the same reconciler.
// The registry's category order keeps the feature order deterministic;
// categories the registry does not know come last, sorted by name.
func Flatten(p *ComparisonPayload, reg *registry.Registry) (*model.Dataset, error) {
	if p == nil {
		return nil, eris.New("backend: flatten nil payload")
	}
	car := p.Model
	if car == "" {
		car = "Remote comparison"
	}

	sources := 0
	for _, features := range p.Features {
		for _, f := range features {
			if n := len(f.FileValues); n > sources {
				sources = n
			}
		}
	}
	if sources == 0 {
		return nil, eris.New("backend: payload has no file values")
	}
	if sources > model.MaxSources {
		return nil, eris.Errorf("backend: payload has %d sources, max %d", sources, model.MaxSources)
	}

	ds := model.NewDataset()
	ds.Cars = []string{car}
	ds.HasFourth = sources == model.MaxSources
	for i := 0; i < sources; i++ {
		ds.SourceNames = append(ds.SourceNames, fmt.Sprintf("Source %d", i+1))
	}
	ds.FeatureOrder[car] = []string{}

	for _, category := range orderedCategories(p, reg) {
		for _, f := range p.Features[category] {
			if f.Label == "" {
				continue
			}
			ds.FeatureOrder[car] = append(ds.FeatureOrder[car], f.Label)
			for i := 0; i < sources; i++ {
				v := ""
				if i < len(f.FileValues) {
					v = f.FileValues[i]
				}
				ds.SetValue(i, car, f.Label, v)
			}
		}
	}
	return ds, nil
}

// BuildSavePayload maps reconciled rows onto the backend's typed category
// structure. Rows whose label the registry does not know are skipped; the
// backend has no column for them.
func BuildSavePayload(country, brand, carModel string, rows []model.Row, reg *registry.Registry) *SavePayload {
	p := &SavePayload{
		Country:  country,
		Brand:    brand,
		Model:    carModel,
		Features: make(map[string][]FeatureEntry),
		Specs:    make(map[string]map[string]any),
	}

	for _, row := range rows {
		category, f, ok := reg.Lookup(row.Feature)
		if !ok {
			continue
		}

		fileValues := make([]any, len(row.Values))
		for i, v := range row.Values {
			fileValues[i] = registry.ParseTyped(v, f.Type)
		}
		value := registry.ParseTyped(row.FinalValue, f.Type)

		p.Features[category] = append(p.Features[category], FeatureEntry{
			Key:        f.Key,
			Label:      row.Feature,
			Value:      value,
			FileValues: fileValues,
		})
		if p.Specs[category] == nil {
			p.Specs[category] = make(map[string]any)
		}
		p.Specs[category][f.Key] = value
	}
	return p
}

func orderedCategories(p *ComparisonPayload, reg *registry.Registry) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, cat := range reg.Categories {
		if _, ok := p.Features[cat.Name]; ok {
			out = append(out, cat.Name)
			seen[cat.Name] = struct{}{}
		}
	}

	var rest []string
	for name := range p.Features {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
