// Package customer decides the resident-vs-business flag. Three strategies
// run in priority order and each returns a tri-state, so the orchestration
// is a flat list rather than nested error handling: an inline checkmark
// glyph in the extracted customer-type span, the checkbox pair detector on
// the page image, and finally a fuzzy comparison against the schema's
// resident/business keywords. When every strategy comes back ambiguous the
// decision stays undetermined - nil, never a guessed false.
package customer

import (
	"image"
	"log/slog"
	"strings"

	"github.com/dkitanovski/contract-extractor/internal/anchor"
	"github.com/dkitanovski/contract-extractor/internal/checkbox"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// Decision is the terminal state. Resident and Business are either both set
// (mutually negated) or both nil.
type Decision struct {
	Resident *bool
	Business *bool
}

// Determined reports whether a flag was resolved.
func (d Decision) Determined() bool { return d.Resident != nil }

func decided(resident bool) Decision {
	business := !resident
	return Decision{Resident: &resident, Business: &business}
}

// checkMarks are the glyphs OCR and PDF text layers produce for a ticked
// box, including the Cyrillic lookalikes dze and ha.
var checkMarks = []rune{'✓', '✔', '☑', '🗸', '🗹', 'x', 'X', 'ѕ', 'х'}

type Config struct {
	// KeywordThreshold is the minimum similarity (0-100) for the fuzzy
	// keyword strategy to commit to an answer.
	KeywordThreshold float64
	// SplitPoint is the fraction of the span before which a checkmark
	// glyph means resident.
	SplitPoint float64
}

type Resolver struct {
	cfg      Config
	detector *checkbox.Detector
	logger   *slog.Logger
}

func NewResolver(cfg Config, detector *checkbox.Detector, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeywordThreshold <= 0 {
		cfg.KeywordThreshold = 75
	}
	if cfg.SplitPoint <= 0 || cfg.SplitPoint >= 1 {
		cfg.SplitPoint = 0.5
	}
	return &Resolver{cfg: cfg, detector: detector, logger: logger}
}

// Input carries everything one resolution may need. Span is the extracted
// customer-type text (may be empty); RegionImage is the checkbox region
// raster (nil when unavailable).
type Input struct {
	Span        string
	RegionImage image.Image
	Spec        schema.CheckboxSpec
	// Keywords enable the fuzzy fallback; empty strings disable it (types
	// whose layout has a checkbox pair never use keywords).
	ResidentKeyword string
	BusinessKeyword string
	// SkipGlyphScan routes straight to the checkbox detector; set for
	// scanned documents whose layout is known to carry a checkbox pair.
	SkipGlyphScan bool
}

// Resolve runs the strategy chain and returns the first determined answer.
func (r *Resolver) Resolve(in Input) Decision {
	if !in.SkipGlyphScan {
		if d := r.glyphScan(in.Span); d.Determined() {
			return d
		}
	}
	if in.RegionImage != nil && r.detector != nil {
		if pair, ok := r.detector.Detect(in.RegionImage, in.Spec); ok {
			return decided(pair.Resident)
		}
	}
	if in.ResidentKeyword != "" && in.BusinessKeyword != "" {
		if d := r.keywordMatch(in.Span, in.ResidentKeyword, in.BusinessKeyword); d.Determined() {
			return d
		}
	}
	r.logger.Debug("customer.undetermined", "span_len", len(in.Span))
	return Decision{}
}

// glyphScan looks for a checkmark glyph in the span; its position relative
// to the split point decides the flag.
func (r *Resolver) glyphScan(span string) Decision {
	span = strings.ToLower(strings.TrimSpace(span))
	if span == "" {
		return Decision{}
	}
	runes := []rune(span)
	split := int(float64(len(runes)) * r.cfg.SplitPoint)
	for i, ch := range runes {
		for _, mark := range checkMarks {
			if ch == mark {
				return decided(i <= split)
			}
		}
	}
	return Decision{}
}

// keywordMatch fuzzily compares the span against the two keywords and picks
// the better one, provided it clears the confidence floor.
func (r *Resolver) keywordMatch(span, residentKW, businessKW string) Decision {
	span = strings.ToLower(strings.TrimSpace(span))
	if span == "" {
		return Decision{}
	}
	rs := anchor.Similarity(span, residentKW)
	bs := anchor.Similarity(span, businessKW)
	best := max(rs, bs)
	if best < r.cfg.KeywordThreshold {
		return Decision{}
	}
	return decided(rs >= bs)
}
