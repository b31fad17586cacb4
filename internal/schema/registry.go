package schema

import (
	"github.com/dkitanovski/contract-extractor/constants"
)

// Registry is the read-only lookup over per-type schemas.
type Registry struct {
	types map[constants.DocType]TypeSchema
}

// SchemaFor returns the field schema for a type/kind pair. Missing entries
// come back empty, never as an error.
func (r *Registry) SchemaFor(t constants.DocType, k constants.FieldKind) FieldSchema {
	return r.types[t].Fields[k]
}

// Capabilities returns the feature flags for a type. Unknown types report
// everything disabled.
func (r *Registry) Capabilities(t constants.DocType) Capabilities {
	return r.types[t].Capabilities
}

// Layout returns the region rectangle for a type, if configured.
func (r *Registry) Layout(t constants.DocType, k constants.RegionKind) (Region, bool) {
	reg, ok := r.types[t].Layout[k]
	return reg, ok
}

// Keywords returns the literal resident/business phrases for the fuzzy
// customer-type tier. Both empty when the type has none.
func (r *Registry) Keywords(t constants.DocType) (resident, business string) {
	ts := r.types[t]
	return ts.ResidentKeyword, ts.BusinessKeyword
}

// TaxIDDigits returns the digit-run bounds for the tax-id fallback scan.
func (r *Registry) TaxIDDigits(t constants.DocType) DigitRange {
	d := r.types[t].TaxIDDigits
	if d.Min == 0 && d.Max == 0 {
		return DigitRange{Min: 13, Max: 13}
	}
	return d
}

// CheckboxSpec returns the detector tuning for a type, defaulted when the
// type carries none.
func (r *Registry) CheckboxSpec(t constants.DocType) CheckboxSpec {
	cs := r.types[t].Checkbox
	if cs.MaxWidth == 0 {
		cs = defaultCheckboxSpec
	}
	return cs
}

// DateAlternatives returns the contract-date shape patterns in priority
// order: DD<sep>DD<sep>YY[YY] over the cartesian product of the separators
// '.', ',' and '-'.
func DateAlternatives() []string {
	seps := []string{`\.`, `\,`, `\-`}
	out := make([]string, 0, len(seps)*len(seps))
	for _, a := range seps {
		for _, b := range seps {
			out = append(out, `\d{2}`+a+`\d{2}`+b+`\d{2,4}`)
		}
	}
	return out
}

var defaultCheckboxSpec = CheckboxSpec{
	MinWidth: 30, MaxWidth: 55,
	MinHeight: 25, MaxHeight: 40,
	MinAspect: 0.8, MaxAspect: 1.2,
	Scales:        []float64{1.3, 1.4, 1.5},
	FillThreshold: 0.1,
	LineTolerance: 20,
}

// Builtin returns the registry for the known contract layout families.
func Builtin() *Registry {
	dates := Pattern{Alternatives: DateAlternatives()}

	// Shared by types 1, 3 and 5: the subscriber block between the two
	// headings holds the customer-type span.
	subscriberSpan := `(?<=ПРЕТПЛАТНИК).*?(?=Име и презиме)`

	types := map[constants.DocType]TypeSchema{
		constants.DocType1: {
			Fields: map[constants.FieldKind]FieldSchema{
				constants.FieldContractNumber: {
					Digital: Pattern{Literal: `комуникациски услуги бр\.\s(\d{9})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `комуникациски услуги бр.`, Suffix: `\s(\d{9})`}},
				},
				constants.FieldContractDate: {Digital: dates, Scanned: dates},
				constants.FieldCustomerType: {
					Digital: Pattern{Literal: subscriberSpan},
					Scanned: Pattern{Literal: subscriberSpan},
				},
				constants.FieldTaxID: {
					Digital: Pattern{Alternatives: []string{
						`ЕМБГ:\s(\d{13})`,
						`(?:ЕДБ:.*?){2}\s*(\d{13})`,
						`ЕДБ:\s(\d{13})`,
					}},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `ЕДБ:`, Suffix: `\s(\d{13})`}},
				},
			},
			Capabilities: Capabilities{HasTable: true, HasCheckbox: true},
			Layout: map[constants.RegionKind]Region{
				constants.RegionTable:    {X0: 0.075, Y0: 0.185, X1: 0.925, Y1: 0.265},
				constants.RegionCheckbox: {X0: 0.225, Y0: 0.175, X1: 0.6, Y1: 0.225},
			},
			TaxIDDigits: DigitRange{Min: 13, Max: 13},
			Checkbox:    defaultCheckboxSpec,
		},
		constants.DocType2: {
			Fields: map[constants.FieldKind]FieldSchema{
				constants.FieldContractNumber: {
					Digital: Pattern{Literal: `ДОГОВОР бр.\s(\d{9})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `ДОГОВОР бр.`, Suffix: `\s(\d{9})`}},
				},
				constants.FieldContractDate: {Digital: dates, Scanned: dates},
				constants.FieldCustomerType: {
					Digital: Pattern{Literal: `КОРИСНИК [^\s]+\s([^\s]+\s[^\s]+)`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `КОРИСНИК`, Suffix: `\s[^\s]+\s([^\s]+\s[^\s]+)`}},
				},
				constants.FieldTaxID: {
					Digital: Pattern{Literal: `ЕМБГ\:\s(\d{13})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `Адреса: ЕМБГ:`, Suffix: `\s(\d{13})`}},
				},
			},
			Capabilities: Capabilities{AmbiguousID: true},
			Layout: map[constants.RegionKind]Region{
				constants.RegionTable:    {X0: 0.075, Y0: 0.185, X1: 0.925, Y1: 0.265},
				constants.RegionCheckbox: {X0: 0.225, Y0: 0.175, X1: 0.6, Y1: 0.225},
			},
			ResidentKeyword: "физичко лице",
			BusinessKeyword: "правно лице",
			TaxIDDigits:     DigitRange{Min: 13, Max: 13},
		},
		constants.DocType3: {
			Fields: map[constants.FieldKind]FieldSchema{
				constants.FieldContractNumber: {
					Digital: Pattern{Literal: `комуникациски услуги бр.\s(\d{9})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `комуникациски услуги бр.`, Suffix: `\s(\d{9})`}},
				},
				constants.FieldContractDate: {Digital: dates, Scanned: dates},
				constants.FieldCustomerType: {
					Digital: Pattern{Literal: subscriberSpan},
					Scanned: Pattern{Literal: subscriberSpan},
				},
				constants.FieldTaxID: {
					Digital: Pattern{Alternatives: []string{
						`ЕМБГ:\s(\d{13})`,
						`(?:ЕДБ:.*?){2}\s*(\d{13})`,
					}},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `ЕДБ:`, Suffix: `\s(\d{13})`}},
				},
			},
			Capabilities: Capabilities{HasTable: true, HasCheckbox: true},
			Layout: map[constants.RegionKind]Region{
				constants.RegionTable:    {X0: 0.075, Y0: 0.195, X1: 0.925, Y1: 0.275},
				constants.RegionCheckbox: {X0: 0.225, Y0: 0.175, X1: 0.6, Y1: 0.225},
			},
			TaxIDDigits: DigitRange{Min: 13, Max: 13},
			Checkbox:    defaultCheckboxSpec,
		},
		constants.DocType4: {
			Fields: map[constants.FieldKind]FieldSchema{
				constants.FieldContractNumber: {
					Digital: Pattern{Literal: `BAN\s(\d{9})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `BAN`, Suffix: `\s(\d{9})`}},
				},
				constants.FieldContractDate: {Digital: dates, Scanned: dates},
				constants.FieldCustomerType: {
					Digital: Pattern{Alternatives: []string{
						`(?<=Име и презиме\:).*?(?=Назив на фирмата\:)`,
						`(?<=Назив на фирмата\:).*?(?=ЕМБГ\:)`,
					}},
					Scanned: Pattern{Alternatives: []string{
						`(?<=Име и презиме\:).*?(?=Назив на фирмата\:)`,
						`(?<=Назив на фирмата\:).*?(?=ЕМБГ\:)`,
					}},
				},
				constants.FieldTaxID: {
					Digital: Pattern{Alternatives: []string{
						`ЕМБГ\:\s(\d{13})`,
						`ЕМБС\:\s(\d{13})`,
					}},
					Scanned: Pattern{Alternatives: []string{
						`ЕМБГ\:\s(\d{13})`,
						`ЕМБС\:\s(\d{13})`,
					}},
				},
			},
			Capabilities: Capabilities{},
			Layout: map[constants.RegionKind]Region{
				constants.RegionTable:    {X0: 0.075, Y0: 0.185, X1: 0.925, Y1: 0.265},
				constants.RegionCheckbox: {X0: 0.225, Y0: 0.175, X1: 0.6, Y1: 0.21},
			},
			TaxIDDigits: DigitRange{Min: 13, Max: 13},
		},
		constants.DocType5: {
			Fields: map[constants.FieldKind]FieldSchema{
				constants.FieldContractNumber: {
					Digital: Pattern{Literal: `BAN (\d{9})`},
					Scanned: Pattern{Literal: `BAN (\d{9})`},
				},
				constants.FieldContractDate: {Digital: dates, Scanned: dates},
				constants.FieldCustomerType: {
					Digital: Pattern{Literal: subscriberSpan},
					Scanned: Pattern{Literal: subscriberSpan},
				},
				constants.FieldTaxID: {
					Digital: Pattern{Literal: `ЕМБГ\:\s(\d{13})`},
					Scanned: Pattern{Anchored: &Anchored{Anchor: `ЕМБГ:`, Suffix: `\s(\d{13})`}},
				},
			},
			Capabilities: Capabilities{HasTable: true, HasCheckbox: true},
			Layout: map[constants.RegionKind]Region{
				constants.RegionCheckbox: {X0: 0.225, Y0: 0.15, X1: 0.6, Y1: 0.2},
			},
			TaxIDDigits: DigitRange{Min: 13, Max: 13},
			Checkbox:    defaultCheckboxSpec,
		},
	}
	return &Registry{types: types}
}
