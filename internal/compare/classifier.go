package compare

import "github.com/bxl-digital/compare-cli/internal/model"

// ClassifyRow compares the values for one feature and assembles the derived
// row. overrideFinal, when non-nil, supersedes the computed representative;
// it is supplied by the caller so the classifier itself stays free of store
// access and side effects.
func ClassifyRow(feature string, values []string, overrideFinal *string) model.Row {
	res := Compare(values)

	final := res.Representative
	if overrideFinal != nil {
		final = *overrideFinal
	}

	return model.Row{
		Feature:    feature,
		Values:     values,
		Class:      res.Class,
		FinalValue: final,
		Tooltip:    res.Tooltip,
	}
}
