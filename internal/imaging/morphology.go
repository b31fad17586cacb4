package imaging

import "image"

// Directional morphology over binary masks (255 = foreground). Erosion with
// a 1xk (or kx1) kernel keeps a pixel only when the whole window is
// foreground; dilation keeps it when any pixel is. Opening (erode then
// dilate) with a long kernel removes everything shorter than the kernel,
// which is how table rules are separated from character strokes.

func morphRow(src, dst []byte, k int, erode bool) {
	n := len(src)
	half := k / 2
	// count of foreground pixels inside the sliding window
	cnt := 0
	lo, hi := 0, -1
	for x := 0; x < n; x++ {
		wantLo, wantHi := x-half, x-half+k-1
		for hi < wantHi {
			hi++
			if hi < n && src[hi] == 255 {
				cnt++
			}
		}
		for lo < wantLo {
			if lo >= 0 && src[lo] == 255 {
				cnt--
			}
			lo++
		}
		width := min(wantHi, n-1) - max(wantLo, 0) + 1
		if erode {
			if cnt == width {
				dst[x] = 255
			} else {
				dst[x] = 0
			}
		} else {
			if cnt > 0 {
				dst[x] = 255
			} else {
				dst[x] = 0
			}
		}
	}
}

func morphH(g *image.Gray, k int, erode bool) *image.Gray {
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		morphRow(g.Pix[y*g.Stride:y*g.Stride+b.Dx()], out.Pix[y*out.Stride:y*out.Stride+b.Dx()], k, erode)
	}
	return out
}

func morphV(g *image.Gray, k int, erode bool) *image.Gray {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	col := make([]byte, h)
	res := make([]byte, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = g.Pix[y*g.Stride+x]
		}
		morphRow(col, res, k, erode)
		for y := 0; y < h; y++ {
			out.Pix[y*out.Stride+x] = res[y]
		}
	}
	return out
}

// OpenH extracts horizontal runs at least k pixels long.
func OpenH(g *image.Gray, k int) *image.Gray {
	return morphH(morphH(g, k, true), k, false)
}

// OpenV extracts vertical runs at least k pixels long.
func OpenV(g *image.Gray, k int) *image.Gray {
	return morphV(morphV(g, k, true), k, false)
}

// DilateSquare grows the foreground by iterations of a 3x3 kernel.
func DilateSquare(g *image.Gray, iterations int) *image.Gray {
	out := g
	for i := 0; i < iterations; i++ {
		out = morphV(morphH(out, 3, false), 3, false)
	}
	return out
}

// Or merges two masks of identical size.
func Or(a, b *image.Gray) *image.Gray {
	out := image.NewGray(a.Bounds())
	for i := range a.Pix {
		if a.Pix[i] == 255 || b.Pix[i] == 255 {
			out.Pix[i] = 255
		}
	}
	return out
}

// Subtract clears a's foreground wherever b is foreground.
func Subtract(a, b *image.Gray) *image.Gray {
	out := image.NewGray(a.Bounds())
	for i := range a.Pix {
		if a.Pix[i] == 255 && b.Pix[i] != 255 {
			out.Pix[i] = 255
		}
	}
	return out
}
