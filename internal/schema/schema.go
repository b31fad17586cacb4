// Package schema holds the per-document-type extraction definitions: field
// patterns, anchor phrases, layout fractions for table/checkbox regions and
// capability flags. The registry is built once at startup and read-only
// afterwards; concurrent lookups are safe.
package schema

import (
	"github.com/dkitanovski/contract-extractor/constants"
)

// Pattern is the tagged union of field pattern shapes.
// Exactly one of Literal, Alternatives or Anchored is set; an entirely zero
// Pattern means the field has no pattern for that path.
type Pattern struct {
	Literal      string
	Alternatives []string
	Anchored     *Anchored
}

// Anchored means "find Anchor in the text, then match Suffix immediately
// after it". On OCR text the anchor is first re-located fuzzily.
type Anchored struct {
	Anchor string
	Suffix string
}

// Empty reports whether no pattern variant is set.
func (p Pattern) Empty() bool {
	return p.Literal == "" && len(p.Alternatives) == 0 && p.Anchored == nil
}

// FieldSchema carries the pattern for each intake path. Digital applies to
// native PDF text layers, Scanned to OCR output.
type FieldSchema struct {
	Digital Pattern
	Scanned Pattern
}

// Empty reports whether the field is disabled for both paths.
func (s FieldSchema) Empty() bool {
	return s.Digital.Empty() && s.Scanned.Empty()
}

// Capabilities are the per-type feature flags.
type Capabilities struct {
	HasTable    bool // tax id lives in a printed table; run the table corrector
	HasCheckbox bool // resident/business is a checkbox pair; skip the keyword path
	AmbiguousID bool // tax id needs an anchored pattern, not the digit-run scan
}

// Region is a two-corner rectangle in page-size fractions, ordered top-left
// then bottom-right, all components within [0,1].
type Region struct {
	X0, Y0 float64
	X1, Y1 float64
}

// Valid reports whether the corners are ordered and inside the unit square.
func (r Region) Valid() bool {
	return r.X0 >= 0 && r.Y0 >= 0 && r.X1 <= 1 && r.Y1 <= 1 && r.X0 < r.X1 && r.Y0 < r.Y1
}

// DigitRange bounds the free-standing digit-run fallback for a numeric field.
type DigitRange struct {
	Min, Max int
}

// CheckboxSpec tunes the checkbox pair detector for one layout family.
// Sizes are pixels at the detector's working scale.
type CheckboxSpec struct {
	MinWidth, MaxWidth   int
	MinHeight, MaxHeight int
	MinAspect, MaxAspect float64   // width/height window, near-square
	Scales               []float64 // raster rescale sweep
	FillThreshold        float64   // interior ink fraction that counts as checked
	LineTolerance        int       // max px difference of top/bottom edges on one line
}

// TypeSchema is everything the engine knows about one document type.
type TypeSchema struct {
	Fields       map[constants.FieldKind]FieldSchema
	Capabilities Capabilities
	Layout       map[constants.RegionKind]Region
	// ResidentKeyword/BusinessKeyword back the fuzzy keyword tier of the
	// customer-type resolver on types without checkboxes.
	ResidentKeyword string
	BusinessKeyword string
	TaxIDDigits     DigitRange
	Checkbox        CheckboxSpec
}
