package imaging

import (
	"image"
	"math"
)

// OrderQuad normalizes corner order to top-left, top-right, bottom-right,
// bottom-left. Smallest coordinate sum is the top-left corner and largest
// the bottom-right; smallest difference (y-x) is the top-right and largest
// the bottom-left.
func OrderQuad(q Quad) Quad {
	var out Quad
	minSum, maxSum := math.Inf(1), math.Inf(-1)
	minDiff, maxDiff := math.Inf(1), math.Inf(-1)
	for _, p := range q {
		sum := float64(p.X + p.Y)
		diff := float64(p.Y - p.X)
		if sum < minSum {
			minSum = sum
			out[0] = p
		}
		if diff < minDiff {
			minDiff = diff
			out[1] = p
		}
		if sum > maxSum {
			maxSum = sum
			out[2] = p
		}
		if diff > maxDiff {
			maxDiff = diff
			out[3] = p
		}
	}
	return out
}

// TargetSize returns the warped rectangle's dimensions: the max of each
// pair of opposite edge lengths of an ordered quad.
func TargetSize(q Quad) (w, h int) {
	top := dist(q[0], q[1])
	bottom := dist(q[3], q[2])
	left := dist(q[0], q[3])
	right := dist(q[1], q[2])
	w = int(math.Round(math.Max(top, bottom)))
	h = int(math.Round(math.Max(left, right)))
	return w, h
}

// PerspectiveWarp maps the ordered quad q in src onto a front-on w x h
// rectangle using the inverse homography and bilinear sampling.
func PerspectiveWarp(src *image.Gray, q Quad, w, h int) *image.Gray {
	// homography from destination rectangle corners to source quad corners
	dstPts := [4][2]float64{{0, 0}, {float64(w - 1), 0}, {float64(w - 1), float64(h - 1)}, {0, float64(h - 1)}}
	srcPts := [4][2]float64{}
	for i, p := range q {
		srcPts[i] = [2]float64{float64(p.X), float64(p.Y)}
	}
	hm, ok := homography(dstPts, srcPts)
	if !ok {
		return image.NewGray(image.Rect(0, 0, w, h))
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fx, fy := apply(hm, float64(x), float64(y))
			out.Pix[y*out.Stride+x] = bilinear(src, fx, fy)
		}
	}
	return out
}

// homography solves the 8-unknown projective transform taking the four from
// points onto the four to points.
func homography(from, to [4][2]float64) ([9]float64, bool) {
	// rows of the 8x9 system A*h = b with h22 fixed at 1
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i][0], from[i][1]
		u, v := to[i][0], to[i][1]
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -u * x, -u * y, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -v * x, -v * y, v}
	}

	// gaussian elimination with partial pivoting
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [9]float64{}, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var hm [9]float64
	for i := 0; i < 8; i++ {
		hm[i] = a[i][8] / a[i][i]
	}
	hm[8] = 1
	return hm, true
}

func apply(h [9]float64, x, y float64) (float64, float64) {
	d := h[6]*x + h[7]*y + h[8]
	if d == 0 {
		return -1, -1
	}
	return (h[0]*x + h[1]*y + h[2]) / d, (h[3]*x + h[4]*y + h[5]) / d
}

func bilinear(g *image.Gray, fx, fy float64) uint8 {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if fx < 0 || fy < 0 || fx > float64(w-1) || fy > float64(h-1) {
		return 255 // outside the page reads as paper
	}
	x0, y0 := int(fx), int(fy)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	tx, ty := fx-float64(x0), fy-float64(y0)

	p00 := float64(g.Pix[y0*g.Stride+x0])
	p10 := float64(g.Pix[y0*g.Stride+x1])
	p01 := float64(g.Pix[y1*g.Stride+x0])
	p11 := float64(g.Pix[y1*g.Stride+x1])
	top := p00 + (p10-p00)*tx
	bot := p01 + (p11-p01)*tx
	return uint8(math.Round(top + (bot-top)*ty))
}

// Sharpen applies a mild 3x3 sharpening convolution to offset warp blur.
func Sharpen(g *image.Gray) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	kernel := [3][3]float64{{0, -1, 0}, {-1, 5, -1}, {0, -1, 0}}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sx := min(max(x+kx, 0), w-1)
					sy := min(max(y+ky, 0), h-1)
					sum += kernel[ky+1][kx+1] * float64(g.Pix[sy*g.Stride+sx])
				}
			}
			out.Pix[y*out.Stride+x] = uint8(min(max(int(math.Round(sum)), 0), 255))
		}
	}
	return out
}
