package imaging

import (
	"image"
	"log/slog"
)

// TableCorrector turns a photographed or skewed table region into a clean,
// front-on image with the gridlines removed, ready for a second OCR pass.
type TableCorrector struct {
	logger *slog.Logger
	cfg    TableConfig
}

type TableConfig struct {
	// RuleDivisor sets the directional kernel length as a fraction of the
	// region dimension: kernel = dimension / RuleDivisor. It must come out
	// longer than any character stroke but shorter than the shortest
	// expected table rule.
	RuleDivisor int
	// MinAreaFrac discards quads smaller than this fraction of the region.
	MinAreaFrac float64
	// RuleDilation is how many 3x3 dilation passes thicken the rule mask
	// before it is subtracted from the warped content.
	RuleDilation int
}

func NewTableCorrector(cfg TableConfig, logger *slog.Logger) *TableCorrector {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RuleDivisor <= 0 {
		cfg.RuleDivisor = 15
	}
	if cfg.MinAreaFrac <= 0 {
		cfg.MinAreaFrac = 0.05
	}
	if cfg.RuleDilation <= 0 {
		cfg.RuleDilation = 2
	}
	return &TableCorrector{logger: logger, cfg: cfg}
}

// Correct locates the largest quadrilateral table boundary in img,
// perspective-corrects it and strips the gridlines. The returned image has
// black content on white, the polarity OCR engines expect. ok is false when
// no table-shaped contour exists; that is expected for occluded or badly
// rotated photographs and the caller falls back to unstructured text.
func (tc *TableCorrector) Correct(img image.Image) (*image.Gray, bool) {
	gray := Grayscale(img)
	ink := Binarize(gray)

	rules := tc.ruleMask(ink)
	w, h := ink.Bounds().Dx(), ink.Bounds().Dy()
	quad, found := LargestQuad(rules, tc.cfg.MinAreaFrac*float64(w)*float64(h))
	if !found {
		tc.logger.Debug("table.no_quad", "width", w, "height", h)
		return nil, false
	}

	ordered := OrderQuad(quad)
	tw, th := TargetSize(ordered)
	if tw < 2 || th < 2 {
		tc.logger.Debug("table.degenerate_quad", "target_w", tw, "target_h", th)
		return nil, false
	}
	warped := Sharpen(PerspectiveWarp(gray, ordered, tw, th))

	// second rule extraction on the straightened image, then subtract the
	// thickened rules leaving table contents only
	warpedInk := Binarize(warped)
	warpedRules := DilateSquare(tc.ruleMask(warpedInk), tc.cfg.RuleDilation)
	contents := Subtract(warpedInk, warpedRules)

	tc.logger.Debug("table.corrected", "target_w", tw, "target_h", th)
	return Invert(contents), true
}

// ruleMask isolates long horizontal and vertical runs (table rules) from a
// binary ink mask.
func (tc *TableCorrector) ruleMask(ink *image.Gray) *image.Gray {
	b := ink.Bounds()
	kh := max(b.Dx()/tc.cfg.RuleDivisor, 3)
	kv := max(b.Dy()/tc.cfg.RuleDivisor, 3)
	return Or(OpenH(ink, kh), OpenV(ink, kv))
}
