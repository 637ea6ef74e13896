package detection

import (
	"image"
	"math"
)

// Contour is the traced outer boundary of one 8-connected foreground region.
type Contour struct {
	// Points is the closed boundary, clockwise on screen, starting at the
	// region's top-most, left-most pixel. The closing point is not repeated.
	Points []image.Point `json:"points"`

	// Area is the polygon area enclosed by Points (shoelace formula). A single
	// pixel or a one-pixel-wide line encloses no area.
	Area float64 `json:"area"`

	label int32
}

// moore lists the 8 neighbor offsets clockwise on screen, starting east.
var moore = [8]image.Point{
	{X: 1, Y: 0},   // E
	{X: 1, Y: 1},   // SE
	{X: 0, Y: 1},   // S
	{X: -1, Y: 1},  // SW
	{X: -1, Y: 0},  // W
	{X: -1, Y: -1}, // NW
	{X: 0, Y: -1},  // N
	{X: 1, Y: -1},  // NE
}

const west = 4

func mooreIndex(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return -1
}

// components labels the 8-connected regions of fg. Labels start at 1; zero
// marks background. Regions are numbered in raster order of their top-left
// pixel.
type components struct {
	labels        []int32
	width, height int
}

func (c *components) at(x, y int) int32 {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return 0
	}
	return c.labels[y*c.width+x]
}

// findContours finds every 8-connected foreground region and traces its
// outer boundary.
//
// Regions sitting inside a hole of another region are reported too; their
// enclosed area is always smaller than the area of the region around them,
// so they never win an area ranking.
func findContours(fg []bool, width, height int) ([]Contour, *components) {
	comp := &components{
		labels: make([]int32, width*height),
		width:  width,
		height: height,
	}

	contours := make([]Contour, 0)
	var next int32

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !fg[i] || comp.labels[i] != 0 {
				continue
			}
			next++
			floodFill(fg, comp, x, y, next)

			label := next
			pts := traceBoundary(func(p image.Point) bool {
				return comp.at(p.X, p.Y) == label
			}, image.Pt(x, y), width*height)

			contours = append(contours, Contour{
				Points: pts,
				Area:   polygonArea(pts),
				label:  label,
			})
		}
	}

	return contours, comp
}

// floodFill labels the 8-connected region containing (startX, startY).
//
// Uses a stack-based approach (not recursive) to avoid stack overflow on
// large regions.
func floodFill(fg []bool, comp *components, startX, startY int, label int32) {
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= comp.width || p.Y < 0 || p.Y >= comp.height {
			continue
		}
		i := p.Y*comp.width + p.X
		if !fg[i] || comp.labels[i] != 0 {
			continue
		}
		comp.labels[i] = label

		for _, d := range moore {
			stack = append(stack, p.Add(d))
		}
	}
}

// traceBoundary follows the outer boundary of a region with Moore-neighbor
// tracing. start must be the region's first pixel in raster order, which
// guarantees its west neighbor is outside the region.
//
// Tracing stops when the walk is about to repeat its first move from start.
// maxSteps bounds the walk.
func traceBoundary(inside func(image.Point) bool, start image.Point, maxSteps int) []image.Point {
	pts := []image.Point{start}
	cur := start
	back := west

	var first image.Point
	moved := false

	for steps := 0; steps <= 4*maxSteps+8; steps++ {
		dir := -1
		for i := 1; i <= 8; i++ {
			d := (back + i) % 8
			if inside(cur.Add(moore[d])) {
				dir = d
				break
			}
		}
		if dir < 0 {
			// isolated pixel
			return pts
		}

		next := cur.Add(moore[dir])
		if moved && cur == start && next == first {
			return pts[:len(pts)-1]
		}
		if !moved {
			first = next
			moved = true
		}

		// The neighbor examined just before next is outside the region and
		// becomes the backtrack cell for the next search.
		prev := cur.Add(moore[(dir+7)%8])
		back = mooreIndex(prev.Sub(next))
		cur = next
		pts = append(pts, cur)
	}

	return pts
}

// polygonArea returns the absolute area enclosed by a closed polygon.
func polygonArea(pts []image.Point) float64 {
	if len(pts) < 3 {
		return 0
	}
	var twice int
	prev := pts[len(pts)-1]
	for _, p := range pts {
		twice += prev.X*p.Y - p.X*prev.Y
		prev = p
	}
	return math.Abs(float64(twice)) / 2
}

// largestContour returns the index of the contour with the greatest area, or
// -1 if none encloses a positive area. The first contour wins ties.
func largestContour(contours []Contour) int {
	best := -1
	maxArea := 0.0
	for i, c := range contours {
		if c.Area > maxArea {
			maxArea = c.Area
			best = i
		}
	}
	return best
}

// fillRegion paints the region with the given label, together with every
// pixel it encloses, as 255 on a new mask.
//
// Enclosed pixels are those that cannot reach the image border through
// 4-connected pixels outside the region.
func fillRegion(comp *components, label int32) *image.Gray {
	w, h := comp.width, comp.height
	mask := image.NewGray(image.Rect(0, 0, w, h))
	outside := make([]bool, w*h)

	stack := make([]image.Point, 0, 2*(w+h))
	push := func(x, y int) {
		if x < 0 || y < 0 || x >= w || y >= h {
			return
		}
		i := y*w + x
		if outside[i] || comp.labels[i] == label {
			return
		}
		outside[i] = true
		stack = append(stack, image.Pt(x, y))
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		push(p.X+1, p.Y)
		push(p.X-1, p.Y)
		push(p.X, p.Y+1)
		push(p.X, p.Y-1)
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !outside[y*w+x] {
				mask.Pix[y*mask.Stride+x] = 255
			}
		}
	}
	return mask
}
