package compare

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/bxl-digital/compare-cli/internal/model"
	"github.com/bxl-digital/compare-cli/internal/store"
)

// Builder assembles the full reconciled row list for a car. The override
// store is injected so the core can run against an in-memory fake in tests.
type Builder struct {
	store store.Store
}

// NewBuilder creates a Builder backed by the given override store.
func NewBuilder(st store.Store) *Builder {
	return &Builder{store: st}
}

// BuildRows produces one row per feature of the car, in the feature order
// fixed by the reference source. Cell overrides replace ingested values
// before classification, so an edited cell changes classification and
// metrics, not just display. Final-value overrides supersede the computed
// representative until the store is reset.
//
// The output is deterministic: repeated calls with unchanged inputs return
// identical rows.
func (b *Builder) BuildRows(ctx context.Context, ds *model.Dataset, car string) ([]model.Row, error) {
	features := ds.Features(car)
	active := ds.ActiveSources()

	rows := make([]model.Row, 0, len(features))
	for _, feature := range features {
		values := make([]string, active)
		for i := 0; i < active; i++ {
			values[i] = ds.Value(i, car, feature)
			if v, ok, err := b.store.GetCell(ctx, car, feature, i); err != nil {
				return nil, eris.Wrapf(err, "build rows: cell override %s/%s[%d]", car, feature, i)
			} else if ok {
				values[i] = v
			}
		}

		var overrideFinal *string
		if v, ok, err := b.store.GetFinal(ctx, car, feature); err != nil {
			return nil, eris.Wrapf(err, "build rows: final override %s/%s", car, feature)
		} else if ok {
			overrideFinal = &v
		}

		rows = append(rows, ClassifyRow(feature, values, overrideFinal))
	}

	return rows, nil
}

// FinalValue resolves the final value for one (car, feature) pair using the
// same precedence as BuildRows: stored override first, computed
// representative otherwise. The all-cars export uses this to fill cells for
// cars the operator never opened.
func (b *Builder) FinalValue(ctx context.Context, ds *model.Dataset, car, feature string) (string, error) {
	if v, ok, err := b.store.GetFinal(ctx, car, feature); err != nil {
		return "", eris.Wrapf(err, "final value: override %s/%s", car, feature)
	} else if ok {
		return v, nil
	}

	found := false
	for _, f := range ds.Features(car) {
		if f == feature {
			found = true
			break
		}
	}
	if !found {
		return "", nil
	}

	active := ds.ActiveSources()
	values := make([]string, active)
	for i := 0; i < active; i++ {
		values[i] = ds.Value(i, car, feature)
		if v, ok, err := b.store.GetCell(ctx, car, feature, i); err != nil {
			return "", eris.Wrapf(err, "final value: cell override %s/%s[%d]", car, feature, i)
		} else if ok {
			values[i] = v
		}
	}

	return Compare(values).Representative, nil
}
