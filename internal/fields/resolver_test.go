package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

func TestExtractContractNumberAndDate(t *testing.T) {
	r := New(0)
	reg := schema.Builtin()
	content := "Договор за користење на јавни комуникациски услуги бр. 123456789 склучен на 01.02.2023 во Скопје"

	num := r.Extract(constants.FieldContractNumber, content,
		reg.SchemaFor(constants.DocType3, constants.FieldContractNumber), false)
	assert.Equal(t, "123456789", num)

	date := r.Extract(constants.FieldContractDate, content,
		reg.SchemaFor(constants.DocType3, constants.FieldContractDate), false)
	assert.Equal(t, "01.02.2023", date)
}

func TestExtractTaxID(t *testing.T) {
	r := New(0)
	reg := schema.Builtin()

	v := r.Extract(constants.FieldTaxID, "Адреса: ул. Партизанска бр. 4 ЕМБГ: 1234567890123 со седиште",
		reg.SchemaFor(constants.DocType1, constants.FieldTaxID), false)
	assert.Equal(t, "1234567890123", v)
}

// The first alternative that matches wins, even when a later one would also
// match.
func TestExtractAlternativeOrdering(t *testing.T) {
	r := New(0)
	fs := schema.FieldSchema{
		Digital: schema.Pattern{Alternatives: []string{
			`ЕМБГ:\s(\d{13})`,
			`(\d{13})`,
		}},
	}
	content := "9999999999999 текст ЕМБГ: 1234567890123"
	v := r.Extract(constants.FieldTaxID, content, fs, false)
	assert.Equal(t, "1234567890123", v)
}

func TestExtractAnchoredDigitalConcatenation(t *testing.T) {
	r := New(0)
	fs := schema.FieldSchema{
		Digital: schema.Pattern{Anchored: &schema.Anchored{Anchor: `ДОГОВОР бр.`, Suffix: `\s(\d{9})`}},
	}
	v := r.Extract(constants.FieldContractNumber, "ДОГОВОР бр. 987654321 од денес", fs, false)
	assert.Equal(t, "987654321", v)
}

// On the OCR path the anchor is fuzzily re-located before the suffix runs,
// so a homoglyph-mangled anchor still yields the value.
func TestExtractAnchoredOCRRelocation(t *testing.T) {
	r := New(70)
	fs := schema.FieldSchema{
		Scanned: schema.Pattern{Anchored: &schema.Anchored{Anchor: `комуникациски услуги бр.`, Suffix: `\s(\d{9})`}},
	}
	content := "Договор за кoмуникaциcки уcлyги бp. 123456789 склучен"
	v := r.Extract(constants.FieldContractNumber, content, fs, true)
	assert.Equal(t, "123456789", v)
}

func TestExtractSpanBetweenHeadings(t *testing.T) {
	r := New(0)
	reg := schema.Builtin()
	content := "ПРЕТПЛАТНИК физичко лице ✓ правно лице Име и презиме Марко Марковски"
	v := r.Extract(constants.FieldCustomerType, content,
		reg.SchemaFor(constants.DocType1, constants.FieldCustomerType), false)
	assert.Equal(t, "физичко лице ✓ правно лице", v)
}

func TestExtractEmptyWhenNothingMatches(t *testing.T) {
	r := New(0)
	reg := schema.Builtin()
	v := r.Extract(constants.FieldContractNumber, "нема број тука",
		reg.SchemaFor(constants.DocType3, constants.FieldContractNumber), false)
	assert.Empty(t, v)
}

func TestExtractEmptyPattern(t *testing.T) {
	r := New(0)
	v := r.Extract(constants.FieldTaxID, "ЕМБГ: 1234567890123", schema.FieldSchema{}, false)
	assert.Empty(t, v)
}

func TestNormalizeDate(t *testing.T) {
	cases := map[string]string{
		"01.02.2023": "01.02.2023",
		"01,02,2023": "01.02.2023",
		"01-02-23":   "01.02.23",
		"01,02-2023": "01.02.2023",
	}
	for in, want := range cases {
		got := NormalizeDate(in)
		assert.Equal(t, want, got)
		// Idempotence: re-normalizing is a no-op.
		assert.Equal(t, got, NormalizeDate(got))
	}
}

func TestExtractNormalizesDateSeparators(t *testing.T) {
	r := New(0)
	reg := schema.Builtin()
	v := r.Extract(constants.FieldContractDate, "склучен на 01,02-2023 во Скопје",
		reg.SchemaFor(constants.DocType3, constants.FieldContractDate), false)
	require.NotEmpty(t, v)
	assert.Equal(t, "01.02.2023", v)
}
