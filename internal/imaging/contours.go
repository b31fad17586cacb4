package imaging

import (
	"image"
	"math"
	"sort"
)

// Quad is a detected quadrilateral boundary. Order is unspecified until
// OrderQuad is applied.
type Quad [4]image.Point

// LargestQuad finds connected foreground components in mask, approximates
// each component's outer boundary to a polygon, and returns the
// quadrilateral with the greatest area, provided it reaches minArea. The
// second return is false when no component reduces to four vertices.
func LargestQuad(mask *image.Gray, minArea float64) (Quad, bool) {
	comps := components(mask)

	var best Quad
	bestArea := minArea
	found := false
	for _, pts := range comps {
		hull := convexHull(pts)
		if len(hull) < 4 {
			continue
		}
		poly := approxPolygon(hull, 0.02*perimeter(hull))
		if len(poly) != 4 {
			continue
		}
		var q Quad
		copy(q[:], poly)
		a := math.Abs(polygonArea(poly))
		if a > bestArea {
			bestArea = a
			best = q
			found = true
		}
	}
	return best, found
}

// components labels 8-connected foreground regions and returns each
// component's boundary pixels (pixels with at least one background
// 4-neighbor). Tiny components are dropped.
func components(mask *image.Gray) [][]image.Point {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	labels := make([]int32, w*h)
	next := int32(1)
	var out [][]image.Point

	at := func(x, y int) byte {
		if x < 0 || y < 0 || x >= w || y >= h {
			return 0
		}
		return mask.Pix[y*mask.Stride+x]
	}

	stack := make([]image.Point, 0, 1024)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Pix[y*mask.Stride+x] != 255 || labels[y*w+x] != 0 {
				continue
			}
			label := next
			next++
			stack = stack[:0]
			stack = append(stack, image.Pt(x, y))
			labels[y*w+x] = label
			var boundary []image.Point
			size := 0
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				size++
				if at(p.X-1, p.Y) == 0 || at(p.X+1, p.Y) == 0 || at(p.X, p.Y-1) == 0 || at(p.X, p.Y+1) == 0 {
					boundary = append(boundary, p)
				}
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 0 || ny < 0 || nx >= w || ny >= h {
							continue
						}
						if mask.Pix[ny*mask.Stride+nx] == 255 && labels[ny*w+nx] == 0 {
							labels[ny*w+nx] = label
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
			if size >= 16 {
				out = append(out, boundary)
			}
		}
	}
	return out
}

// convexHull computes the convex hull with the monotone chain algorithm,
// counter-clockwise, no collinear duplicates.
func convexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		return pts
	}
	ps := make([]image.Point, len(pts))
	copy(ps, pts)
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].X != ps[j].X {
			return ps[i].X < ps[j].X
		}
		return ps[i].Y < ps[j].Y
	})

	cross := func(o, a, b image.Point) int {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	var hull []image.Point
	for _, p := range ps {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// approxPolygon runs Ramer-Douglas-Peucker over a closed polygon,
// anchored at the two most distant vertices.
func approxPolygon(poly []image.Point, epsilon float64) []image.Point {
	if len(poly) < 3 {
		return poly
	}
	// split the ring at its diameter endpoints
	ai, bi := 0, 0
	maxD := -1.0
	for i := range poly {
		for j := i + 1; j < len(poly); j++ {
			d := dist(poly[i], poly[j])
			if d > maxD {
				maxD = d
				ai, bi = i, j
			}
		}
	}
	n := len(poly)
	ring := make([]image.Point, 0, n+1)
	ring = append(ring, poly[ai:]...)
	ring = append(ring, poly[:ai]...)
	bi = (bi - ai + n) % n
	closed := make([]image.Point, 0, n-bi+1)
	closed = append(closed, ring[bi:]...)
	closed = append(closed, ring[0]) // close the ring

	left := rdp(ring[:bi+1], epsilon)
	right := rdp(closed, epsilon)
	return append(left[:len(left)-1], right[:len(right)-1]...)
}

func rdp(pts []image.Point, epsilon float64) []image.Point {
	if len(pts) < 3 {
		return pts
	}
	idx, maxD := 0, 0.0
	for i := 1; i < len(pts)-1; i++ {
		d := pointLineDist(pts[i], pts[0], pts[len(pts)-1])
		if d > maxD {
			maxD = d
			idx = i
		}
	}
	if maxD <= epsilon {
		return []image.Point{pts[0], pts[len(pts)-1]}
	}
	left := rdp(pts[:idx+1], epsilon)
	right := rdp(pts[idx:], epsilon)
	return append(left[:len(left)-1], right...)
}

func pointLineDist(p, a, b image.Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	l := math.Hypot(dx, dy)
	if l == 0 {
		return dist(p, a)
	}
	return math.Abs(dx*float64(a.Y-p.Y)-dy*float64(a.X-p.X)) / l
}

func dist(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}

func perimeter(poly []image.Point) float64 {
	var p float64
	for i := range poly {
		p += dist(poly[i], poly[(i+1)%len(poly)])
	}
	return p
}

func polygonArea(poly []image.Point) float64 {
	var a float64
	for i := range poly {
		j := (i + 1) % len(poly)
		a += float64(poly[i].X*poly[j].Y - poly[j].X*poly[i].Y)
	}
	return a / 2
}
