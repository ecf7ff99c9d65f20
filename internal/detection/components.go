package detection

import (
	"image"

	"github.com/ironsheep/scan-detect/internal/geometry"
	"github.com/ironsheep/scan-detect/internal/imaging"
)

// Component is a connected group of ink pixels.
type Component struct {
	// Bounds is the bounding box: Min inclusive, Max exclusive, so that
	// Bounds.Dx() and Bounds.Dy() are the width and height in pixels.
	Bounds image.Rectangle

	// Pixels is the number of ink pixels in the component.
	Pixels int
}

// Center returns the center of the bounding box in pixel coordinates,
// (x + (w-1)/2, y + (h-1)/2).
func (c Component) Center() geometry.Point {
	return geometry.Pt(
		float64(c.Bounds.Min.X)+float64(c.Bounds.Dx()-1)/2,
		float64(c.Bounds.Min.Y)+float64(c.Bounds.Dy()-1)/2,
	)
}

// FindComponents groups the ink pixels of bm into 8-connected components,
// in raster order of their first pixel.
func FindComponents(bm *imaging.Bitmap) []Component {
	width, height := bm.Width(), bm.Height()
	visited := make([]bool, width*height)

	components := make([]Component, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if visited[y*width+x] || !bm.Dark(x, y) {
				continue
			}
			components = append(components, floodFill(bm, visited, x, y))
		}
	}
	return components
}

// floodFill collects the component containing (startX, startY).
//
// Uses an explicit stack rather than recursion so that large components
// (page borders, filled areas) cannot overflow the goroutine stack.
func floodFill(bm *imaging.Bitmap, visited []bool, startX, startY int) Component {
	width := bm.Width()
	minX, minY := startX, startY
	maxX, maxY := startX, startY
	pixels := 0

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !bm.Contains(p.X, p.Y) {
			continue
		}
		idx := p.Y*width + p.X
		if visited[idx] || !bm.Dark(p.X, p.Y) {
			continue
		}
		visited[idx] = true
		pixels++

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}

	return Component{
		Bounds: image.Rect(minX, minY, maxX+1, maxY+1),
		Pixels: pixels,
	}
}
