package imaging

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenHKeepsLongRunsDropsShort(t *testing.T) {
	g := newFilled(60, 5, 0)
	// long horizontal run on row 1, short run on row 3
	fillRect(g, image.Rect(5, 1, 45, 2), 255)
	fillRect(g, image.Rect(10, 3, 15, 4), 255)

	out := OpenH(g, 20)

	longKept, shortKept := 0, 0
	for x := 0; x < 60; x++ {
		if out.Pix[1*out.Stride+x] == 255 {
			longKept++
		}
		if out.Pix[3*out.Stride+x] == 255 {
			shortKept++
		}
	}
	assert.Greater(t, longKept, 30)
	assert.Zero(t, shortKept)
}

func TestOpenVKeepsLongColumns(t *testing.T) {
	g := newFilled(5, 60, 0)
	for y := 5; y < 45; y++ {
		g.Pix[y*g.Stride+2] = 255
	}
	g.Pix[10*g.Stride+4] = 255 // isolated pixel

	out := OpenV(g, 20)

	kept := 0
	for y := 0; y < 60; y++ {
		if out.Pix[y*out.Stride+2] == 255 {
			kept++
		}
	}
	assert.Greater(t, kept, 30)
	assert.Zero(t, out.Pix[10*out.Stride+4])
}

func TestDilateSquareGrows(t *testing.T) {
	g := newFilled(9, 9, 0)
	g.Pix[4*g.Stride+4] = 255

	out := DilateSquare(g, 1)
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			assert.EqualValues(t, 255, out.Pix[y*out.Stride+x])
		}
	}
	assert.Zero(t, out.Pix[1*out.Stride+1])
}

func TestOrAndSubtract(t *testing.T) {
	a := newFilled(4, 1, 0)
	b := newFilled(4, 1, 0)
	a.Pix[0], a.Pix[1] = 255, 255
	b.Pix[1], b.Pix[2] = 255, 255

	or := Or(a, b)
	assert.Equal(t, []uint8{255, 255, 255, 0}, or.Pix[:4])

	sub := Subtract(a, b)
	assert.Equal(t, []uint8{255, 0, 0, 0}, sub.Pix[:4])
}

func TestBinarizePolarityAndOtsu(t *testing.T) {
	g := newFilled(10, 10, 200)
	fillRect(g, image.Rect(0, 0, 5, 10), 30) // dark half

	th := OtsuThreshold(g)
	assert.GreaterOrEqual(t, th, uint8(30))
	assert.Less(t, th, uint8(200))

	ink := Binarize(g)
	assert.EqualValues(t, 255, ink.Pix[0])            // dark pixel is foreground
	assert.EqualValues(t, 0, ink.Pix[0*ink.Stride+9]) // light pixel is background
}

func TestInvert(t *testing.T) {
	g := newFilled(2, 1, 0)
	g.Pix[1] = 255
	out := Invert(g)
	assert.EqualValues(t, 255, out.Pix[0])
	assert.EqualValues(t, 0, out.Pix[1])
}

func TestCropRegionFractions(t *testing.T) {
	g := newFilled(100, 200, 255)
	fillRect(g, image.Rect(10, 20, 60, 100), 0)

	crop := CropRegion(g, 0.1, 0.1, 0.6, 0.5)
	b := crop.Bounds()
	require.Equal(t, 50, b.Dx())
	require.Equal(t, 80, b.Dy())

	cg := Grayscale(crop)
	assert.EqualValues(t, 0, cg.Pix[0])
}

// Gray sub-images carry a non-zero origin; Grayscale must re-base them so
// the flat Pix indexing downstream reads the right pixels.
func TestGrayscaleRebasesSubImage(t *testing.T) {
	g := newFilled(10, 10, 255)
	g.Pix[5*g.Stride+4] = 0

	sub := g.SubImage(image.Rect(2, 2, 8, 8)).(*image.Gray)
	require.NotEqual(t, image.Pt(0, 0), sub.Bounds().Min)

	out := Grayscale(sub)
	assert.Equal(t, image.Pt(0, 0), out.Bounds().Min)
	require.Equal(t, 6, out.Bounds().Dx())
	require.Equal(t, 6, out.Bounds().Dy())
	// the marked pixel at (4,5) lands at (2,3) in the re-based raster
	assert.EqualValues(t, 0, out.Pix[3*out.Stride+2])

	// zero-origin grays pass through without a copy
	assert.Same(t, out, Grayscale(out))
}

func TestLargestQuadPicksBiggest(t *testing.T) {
	mask := newFilled(200, 100, 0)
	fillRect(mask, image.Rect(10, 10, 40, 30), 255)
	fillRect(mask, image.Rect(60, 10, 190, 90), 255)

	q, ok := LargestQuad(mask, 100)
	require.True(t, ok)
	ordered := OrderQuad(q)
	assert.InDelta(t, 60, ordered[0].X, 2)
	assert.InDelta(t, 10, ordered[0].Y, 2)
	assert.InDelta(t, 189, ordered[2].X, 2)
	assert.InDelta(t, 89, ordered[2].Y, 2)
}
