package model

// MaxSources is the fixed upper bound on comparison sources. Source 0 is the
// reference source and defines feature order; source 3 is optional.
const MaxSources = 4

// MinSources is the number of sources required before a comparison can run.
const MinSources = 3

// CarValues maps feature name to raw string value for one car in one source.
type CarValues map[string]string

// SourceData maps car name to its feature values for one source slot.
type SourceData map[string]CarValues

// Dataset is the in-memory representation shared by both ingestion paths
// (file upload and remote fetch). It is replaced wholesale on re-ingestion.
type Dataset struct {
	// Sources holds one value map per source slot, indexed 0..3.
	Sources [MaxSources]SourceData
	// FeatureOrder fixes, per car, the feature order taken from source 0.
	FeatureOrder map[string][]string
	// Cars lists car names in first-encountered order.
	Cars []string
	// SourceNames are display names for the source slots (file names or
	// remote data set labels).
	SourceNames []string
	// HasFourth reports whether the optional fourth source was supplied.
	HasFourth bool
}

// NewDataset returns an empty dataset with initialized maps.
func NewDataset() *Dataset {
	d := &Dataset{FeatureOrder: make(map[string][]string)}
	for i := range d.Sources {
		d.Sources[i] = make(SourceData)
	}
	return d
}

// ActiveSources returns the number of source slots in play (3 or 4).
func (d *Dataset) ActiveSources() int {
	if d.HasFourth {
		return MaxSources
	}
	return MinSources
}

// Value returns the raw value for (source, car, feature), or "" when absent.
func (d *Dataset) Value(source int, car, feature string) string {
	if source < 0 || source >= MaxSources {
		return ""
	}
	cv, ok := d.Sources[source][car]
	if !ok {
		return ""
	}
	return cv[feature]
}

// SetValue stores a raw value for (source, car, feature), creating the car
// map if needed. Used by ingestion and by cell edits.
func (d *Dataset) SetValue(source int, car, feature, value string) {
	if source < 0 || source >= MaxSources {
		return
	}
	cv, ok := d.Sources[source][car]
	if !ok {
		cv = make(CarValues)
		d.Sources[source][car] = cv
	}
	cv[feature] = value
}

// Features returns the ordered feature list for a car.
func (d *Dataset) Features(car string) []string {
	return d.FeatureOrder[car]
}
