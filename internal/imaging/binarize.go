// Package imaging implements the raster geometry the extraction engine
// needs: Otsu binarization, directional morphology for isolating table
// rules, quadrilateral boundary detection, perspective correction and
// gridline removal. Everything operates on stdlib image.Gray; binary masks
// use 255 for foreground (ink) and 0 for background.
package imaging

import (
	"image"
	"image/draw"
)

// Grayscale converts any image to 8-bit grayscale with a zero origin, which
// the pixel loops in this package rely on. Gray sub-images are re-based.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// OtsuThreshold picks the global threshold maximizing between-class
// variance of the gray histogram.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	b := g.Bounds()
	total := b.Dx() * b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[(y-b.Min.Y)*g.Stride : (y-b.Min.Y)*g.Stride+b.Dx()]
		for _, v := range row {
			hist[v]++
		}
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize thresholds a grayscale image with Otsu and inverts it so ink
// becomes foreground (255).
func Binarize(g *image.Gray) *image.Gray {
	t := OtsuThreshold(g)
	b := g.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := g.Pix[y*g.Stride : y*g.Stride+b.Dx()]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()]
		for x, v := range src {
			if v <= t {
				dst[x] = 255
			}
		}
	}
	return out
}

// Invert flips foreground and background in place and returns the image.
func Invert(g *image.Gray) *image.Gray {
	for i, v := range g.Pix {
		g.Pix[i] = 255 - v
	}
	return g
}

// CropRegion cuts a fraction rectangle out of an image. Fractions are
// clamped to the image bounds.
func CropRegion(img image.Image, x0, y0, x1, y1 float64) image.Image {
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	r := image.Rect(
		b.Min.X+int(x0*w), b.Min.Y+int(y0*h),
		b.Min.X+int(x1*w), b.Min.Y+int(y1*h),
	).Intersect(b)
	out := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}
