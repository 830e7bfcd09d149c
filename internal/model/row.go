// Package model defines the core data types shared across ingestion,
// comparison, storage, and export.
package model

// Agreement classifies how the sources of one row relate to each other.
// The string values double as the color classes rendered by clients.
type Agreement string

const (
	// AgreementFull: every source present and equal ignoring case.
	AgreementFull Agreement = "green"
	// AgreementPartial: at least two sources share a value, but not all.
	AgreementPartial Agreement = "yellow"
	// AgreementNone: no two sources share a value.
	AgreementNone Agreement = "red"
	// AgreementUnknown: row has not been classified.
	AgreementUnknown Agreement = ""
)

// Row is one reconciled feature across all active sources. Rows are derived
// on demand from source values plus override lookups and are never persisted
// as a unit.
type Row struct {
	Feature    string    `json:"feature"`
	Values     []string  `json:"values"`
	Class      Agreement `json:"colorClass"`
	FinalValue string    `json:"finalValue"`
	Tooltip    string    `json:"tooltip,omitempty"`
}
