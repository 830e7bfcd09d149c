package model

// Metrics summarizes one car's reconciled rows. DiffPercents holds one
// formatted percentage per non-reference source (index 0 corresponds to
// source 1), each either "0%" or a one-decimal value like "12.5%".
type Metrics struct {
	TotalFeatures    int      `json:"totalFeatures"`
	SameCount        int      `json:"sameCount"`
	PartialCount     int      `json:"partialCount"`
	DiffCount        int      `json:"diffCount"`
	MissingCellCount int      `json:"missingCellCount"`
	DiffPercents     []string `json:"diffPercents"`
}
