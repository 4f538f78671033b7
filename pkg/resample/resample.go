/*****************************************************************************************************************/

// Package resample implements bilinear interpolation of a source pixel
// rectangle at arbitrary fractional sample coordinates, plus the
// rotation remapping applied when a cutout's requested frame differs
// from its source mosaic's frame.
package resample

/*****************************************************************************************************************/

import "fmt"

/*****************************************************************************************************************/

// Point is a single fractional sample coordinate in source pixel units.
type Point struct {
	X, Y float64
}

/*****************************************************************************************************************/

// Rotation names one of the four cardinal rotations relating a
// cutout's solution frame to its source mosaic's pixel frame.
type Rotation int

const (
	Rotation0   Rotation = 0
	Rotation90  Rotation = 90
	Rotation180 Rotation = 180
	Rotation270 Rotation = 270
)

/*****************************************************************************************************************/

// ParseRotationDelta maps a stored rotation_delta value onto one of the
// four supported rotations. 0, ±90, ±180, and ±270 are all accepted;
// any other value is a RotationDeltaIllegal condition.
func ParseRotationDelta(deltaDeg int) (Rotation, error) {
	switch deltaDeg {
	case 0:
		return Rotation0, nil
	case 90, -270:
		return Rotation90, nil
	case 180, -180:
		return Rotation180, nil
	case -90, 270:
		return Rotation270, nil
	default:
		return 0, fmt.Errorf("resample: illegal rotation_delta %d", deltaDeg)
	}
}

/*****************************************************************************************************************/

// Remap applies the rotation to a single (x, y) pair expressed against
// mosaic dimensions (width, height), per spec §4.8's remap table,
// using w = width-1, h = height-1.
func Remap(rot Rotation, width, height int, p Point) Point {
	w := float64(width - 1)
	h := float64(height - 1)

	switch rot {
	case Rotation0:
		return p
	case Rotation180:
		return Point{X: w - p.X, Y: h - p.Y}
	case Rotation270:
		// -90 or +270: (w-y, x)
		return Point{X: w - p.Y, Y: p.X}
	case Rotation90:
		// +90 or -270: (y, h-x)
		return Point{X: p.Y, Y: h - p.X}
	default:
		return p
	}
}

/*****************************************************************************************************************/

// RemapAll applies Remap to every point in place and returns the slice
// for chaining.
func RemapAll(rot Rotation, width, height int, points []Point) []Point {
	for i, p := range points {
		points[i] = Remap(rot, width, height, p)
	}
	return points
}

/*****************************************************************************************************************/

// Swapped reports whether the rotation exchanges width and height,
// matching §4.9 step 4a's |rotation_delta| ∈ {90, 270} test.
func (r Rotation) Swapped() bool {
	return r == Rotation90 || r == Rotation270
}

/*****************************************************************************************************************/

// Bilinear interpolates source, an i16 pixel grid indexed [y][x], at
// each of points, returning one f64 sample per point truncated back to
// i16. Every point must lie within the closed rectangle
// [0, width-1] x [0, height-1] implied by source's shape; callers are
// responsible for flagging and excluding out-of-rectangle samples
// before calling this function.
func Bilinear(source [][]int16, points []Point) ([]int16, error) {
	height := len(source)
	if height == 0 {
		return nil, fmt.Errorf("resample: empty source rectangle")
	}
	width := len(source[0])

	out := make([]int16, len(points))

	for i, p := range points {
		if p.X < 0 || p.Y < 0 || p.X > float64(width-1) || p.Y > float64(height-1) {
			return nil, fmt.Errorf("resample: sample point (%g, %g) outside source rectangle %dx%d", p.X, p.Y, width, height)
		}

		x0 := int(p.X)
		y0 := int(p.Y)

		x1 := x0 + 1
		if x1 > width-1 {
			x1 = x0
		}
		y1 := y0 + 1
		if y1 > height-1 {
			y1 = y0
		}

		fx := p.X - float64(x0)
		fy := p.Y - float64(y0)

		v00 := float64(source[y0][x0])
		v10 := float64(source[y0][x1])
		v01 := float64(source[y1][x0])
		v11 := float64(source[y1][x1])

		top := v00*(1-fx) + v10*fx
		bot := v01*(1-fx) + v11*fx
		v := top*(1-fy) + bot*fy

		out[i] = int16(v)
	}

	return out, nil
}
