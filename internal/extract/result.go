package extract

// ExtractionResult is the single record produced per document. String
// fields stay empty and flag pointers stay nil when a value could not be
// determined; absence is data here, not an error.
type ExtractionResult struct {
	ContractNumber string
	ContractDate   string
	TaxID          string
	Resident       *bool
	Business       *bool
}

// Complete reports whether every slot was resolved. The two flags count as
// one slot since they are mutually negated when known.
func (r ExtractionResult) Complete() bool {
	return r.ContractNumber != "" && r.ContractDate != "" && r.TaxID != "" && r.Resident != nil
}
