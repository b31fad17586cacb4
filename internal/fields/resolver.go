// Package fields resolves the four contract fields out of page text (native
// or OCR) using the per-type schema patterns. Patterns come from the schema
// registry; the OCR path substitutes fuzzily re-located anchor phrases
// before matching. Patterns use lookaround (e.g. span-between-headings), so
// matching runs on the regexp2 engine rather than RE2.
package fields

import (
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/dkitanovski/contract-extractor/constants"
	"github.com/dkitanovski/contract-extractor/internal/anchor"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// Resolver evaluates schema patterns against normalized page content.
// The zero value uses the default anchor threshold.
type Resolver struct {
	// AnchorThreshold is the fuzzy-match acceptance score (0-100) for
	// re-located anchors on OCR text.
	AnchorThreshold float64
}

func New(anchorThreshold float64) *Resolver {
	if anchorThreshold <= 0 {
		anchorThreshold = anchor.DefaultThreshold
	}
	return &Resolver{AnchorThreshold: anchorThreshold}
}

// Extract resolves one field from content. useOCRAnchoring selects the
// scanned pattern set and enables fuzzy anchor substitution. An empty
// return means no pattern matched; that is an expected outcome, not an
// error - the caller's completeness check decides whether it matters.
func (r *Resolver) Extract(kind constants.FieldKind, content string, fs schema.FieldSchema, useOCRAnchoring bool) string {
	pat := fs.Digital
	if useOCRAnchoring {
		pat = fs.Scanned
	}
	if pat.Empty() {
		return ""
	}

	exprs := r.expressions(pat, content, useOCRAnchoring)
	value := firstMatch(exprs, content)
	if kind == constants.FieldContractDate {
		value = NormalizeDate(value)
	}
	return strings.TrimSpace(value)
}

// expressions flattens a pattern into the ordered regex list to evaluate.
func (r *Resolver) expressions(pat schema.Pattern, content string, useOCRAnchoring bool) []string {
	switch {
	case pat.Anchored != nil:
		expr, ok := r.anchoredExpression(*pat.Anchored, content, useOCRAnchoring)
		if !ok {
			return nil
		}
		return []string{expr}
	case len(pat.Alternatives) > 0:
		return pat.Alternatives
	case pat.Literal != "":
		return []string{pat.Literal}
	default:
		return nil
	}
}

// anchoredExpression builds the runtime regex for an {anchor, suffix} pair.
// On the OCR path the anchor is replaced by its best fuzzy relocation when
// that clears the threshold; otherwise the literal anchor is kept as long
// as it still forms a valid pattern.
func (r *Resolver) anchoredExpression(a schema.Anchored, content string, useOCRAnchoring bool) (string, bool) {
	if !useOCRAnchoring || a.Anchor == "" {
		return a.Anchor + a.Suffix, true
	}
	m, ok := anchor.ResolveAbove(a.Anchor, content, r.AnchorThreshold)
	if ok {
		// The relocated phrase is verbatim text, not pattern syntax.
		return regexp.QuoteMeta(m.Phrase) + a.Suffix, true
	}
	expr := a.Anchor + a.Suffix
	if _, err := regexp2.Compile(expr, regexp2.Singleline); err != nil {
		return "", false
	}
	return expr, true
}

// firstMatch evaluates exprs in declared order; the first successful match
// wins. Group 1 is preferred, the full match is the fallback when the
// pattern has no capture group. Malformed expressions are skipped.
func firstMatch(exprs []string, content string) string {
	for _, expr := range exprs {
		re, err := regexp2.Compile(expr, regexp2.Singleline)
		if err != nil {
			continue
		}
		m, err := re.FindStringMatch(content)
		if err != nil || m == nil {
			continue
		}
		if g := m.GroupByNumber(1); g != nil && len(g.Captures) > 0 {
			return g.String()
		}
		return m.String()
	}
	return ""
}

// NormalizeDate maps ',' and '-' date separators to '.'. Already-normalized
// dates pass through unchanged.
func NormalizeDate(s string) string {
	s = strings.ReplaceAll(s, ",", ".")
	return strings.ReplaceAll(s, "-", ".")
}
