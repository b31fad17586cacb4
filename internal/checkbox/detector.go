// Package checkbox finds the resident/business checkbox pair inside a page
// region and reports which box is ticked. Detection tolerances are broad on
// purpose (print quality varies), so unrelated square-ish glyphs can slip
// in; the same-line pairing scan filters those out.
package checkbox

import (
	"image"
	"log/slog"
	"math"
	"sort"

	xdraw "golang.org/x/image/draw"

	"github.com/dkitanovski/contract-extractor/internal/imaging"
	"github.com/dkitanovski/contract-extractor/internal/schema"
)

// Candidate is one detected near-square glyph. Ephemeral: produced and
// consumed within a single Detect call.
type Candidate struct {
	Box    image.Rectangle
	Filled bool
}

// Pair is the resolved left/right checkbox pair.
type Pair struct {
	Resident bool
	Business bool
}

type Detector struct {
	logger *slog.Logger
}

func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// Detect looks for the checkbox pair in img using spec's size and aspect
// windows. It sweeps the configured raster scales and stops at the first
// scale that produces a same-line pair. ok is false when fewer than two
// candidates turn up at every scale (one box is not enough to infer a
// binary choice) or no two candidates share a printed line.
func (d *Detector) Detect(img image.Image, spec schema.CheckboxSpec) (Pair, bool) {
	scales := spec.Scales
	if len(scales) == 0 {
		scales = []float64{1.0}
	}
	for _, scale := range scales {
		cands := d.candidates(rescale(img, scale), spec)
		if len(cands) < 2 {
			continue
		}
		pair, ok := sameLinePair(cands, spec.LineTolerance)
		if !ok {
			continue
		}
		d.logger.Debug("checkbox.pair",
			"scale", scale,
			"left_filled", pair[0].Filled, "right_filled", pair[1].Filled,
		)
		resident := pair[0].Filled
		return Pair{Resident: resident, Business: !resident}, true
	}
	return Pair{}, false
}

// candidates returns connected ink components whose bounding boxes fit the
// size and aspect windows, with their filled state.
func (d *Detector) candidates(img image.Image, spec schema.CheckboxSpec) []Candidate {
	ink := imaging.Binarize(imaging.Grayscale(img))
	boxes := componentBoxes(ink)

	var out []Candidate
	for _, box := range boxes {
		w, h := box.Dx(), box.Dy()
		if w < spec.MinWidth || w > spec.MaxWidth || h < spec.MinHeight || h > spec.MaxHeight {
			continue
		}
		aspect := float64(w) / float64(h)
		if aspect < spec.MinAspect || aspect > spec.MaxAspect {
			continue
		}
		out = append(out, Candidate{Box: box, Filled: interiorInk(ink, box) > spec.FillThreshold})
	}
	return out
}

// sameLinePair sorts candidates top to bottom and scans adjacent pairs for
// two boxes whose top and bottom edges differ by no more than tol pixels,
// i.e. that sit on the same printed line. The first such pair wins and is
// returned left to right.
func sameLinePair(cands []Candidate, tol int) ([2]Candidate, bool) {
	sort.Slice(cands, func(i, j int) bool { return cands[i].Box.Min.Y < cands[j].Box.Min.Y })
	for i := 0; i+1 < len(cands); i++ {
		a, b := cands[i], cands[i+1]
		if abs(a.Box.Min.Y-b.Box.Min.Y) > tol || abs(a.Box.Max.Y-b.Box.Max.Y) > tol {
			continue
		}
		if a.Box.Min.X > b.Box.Min.X {
			a, b = b, a
		}
		return [2]Candidate{a, b}, true
	}
	return [2]Candidate{}, false
}

// interiorInk measures the ink fraction inside the box with the border ring
// excluded, so the box outline itself does not count as a tick.
func interiorInk(ink *image.Gray, box image.Rectangle) float64 {
	inset := max(box.Dx()/6, 2)
	inner := box.Inset(inset)
	if inner.Empty() {
		return 0
	}
	count, total := 0, 0
	for y := inner.Min.Y; y < inner.Max.Y; y++ {
		for x := inner.Min.X; x < inner.Max.X; x++ {
			total++
			if ink.Pix[y*ink.Stride+x] == 255 {
				count++
			}
		}
	}
	return float64(count) / float64(total)
}

// componentBoxes labels 8-connected ink components and returns their
// bounding boxes.
func componentBoxes(ink *image.Gray) []image.Rectangle {
	b := ink.Bounds()
	w, h := b.Dx(), b.Dy()
	seen := make([]bool, w*h)
	var boxes []image.Rectangle
	stack := make([]image.Point, 0, 256)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if ink.Pix[y*ink.Stride+x] != 255 || seen[y*w+x] {
				continue
			}
			box := image.Rect(x, y, x+1, y+1)
			stack = stack[:0]
			stack = append(stack, image.Pt(x, y))
			seen[y*w+x] = true
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				box = box.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if ink.Pix[ny*ink.Stride+nx] == 255 && !seen[ny*w+nx] {
							seen[ny*w+nx] = true
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
			boxes = append(boxes, box)
		}
	}
	return boxes
}

// rescale resizes the raster so the fixed pixel windows sweep different
// effective checkbox sizes.
func rescale(img image.Image, scale float64) image.Image {
	if scale == 1.0 {
		return img
	}
	b := img.Bounds()
	w := int(math.Round(float64(b.Dx()) * scale))
	h := int(math.Round(float64(b.Dy()) * scale))
	if w < 1 || h < 1 {
		return img
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
