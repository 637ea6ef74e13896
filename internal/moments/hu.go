package moments

import (
	"image"
	"math"
)

// Spatial holds the raw image moments m_pq = Σ x^p y^q over foreground
// pixels, up to third order.
type Spatial struct {
	M00, M10, M01      float64
	M20, M11, M02      float64
	M30, M21, M12, M03 float64
}

// Central holds the centroid-relative moments µ_pq up to third order.
// µ00 equals M00 and µ10, µ01 are always zero, so they are not stored.
type Central struct {
	Mu20, Mu11, Mu02       float64
	Mu30, Mu21, Mu12, Mu03 float64
}

// ScaleNormalized holds η_pq = µ_pq / M00^(1+(p+q)/2).
type ScaleNormalized struct {
	Nu20, Nu11, Nu02       float64
	Nu30, Nu21, Nu12, Nu03 float64
}

// Moments bundles every intermediate stage used to derive the Hu invariants.
type Moments struct {
	Spatial    Spatial
	Central    Central
	Normalized ScaleNormalized

	// CentroidX and CentroidY are M10/M00 and M01/M00, or 0 when M00 is 0.
	CentroidX float64
	CentroidY float64
}

// Compute returns the moments of a mask treated as a binary field: every
// non-zero pixel weighs 1, every zero pixel weighs 0. Coordinates are
// relative to the mask's top-left corner.
//
// When the mask has no foreground (M00 == 0) the centroid, central and
// normalized moments are all left at zero.
func Compute(mask *image.Gray) Moments {
	var s Spatial
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()

	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		var x0, x1, x2, x3 float64
		for x, v := range row {
			if v == 0 {
				continue
			}
			fx := float64(x)
			x0++
			x1 += fx
			x2 += fx * fx
			x3 += fx * fx * fx
		}
		if x0 == 0 {
			continue
		}
		fy := float64(y)
		fy2 := fy * fy
		s.M00 += x0
		s.M10 += x1
		s.M01 += x0 * fy
		s.M20 += x2
		s.M11 += x1 * fy
		s.M02 += x0 * fy2
		s.M30 += x3
		s.M21 += x2 * fy
		s.M12 += x1 * fy2
		s.M03 += x0 * fy2 * fy
	}

	return fromSpatial(s)
}

func fromSpatial(s Spatial) Moments {
	m := Moments{Spatial: s}
	if s.M00 == 0 {
		return m
	}

	cx := s.M10 / s.M00
	cy := s.M01 / s.M00
	m.CentroidX, m.CentroidY = cx, cy

	c := Central{
		Mu20: s.M20 - s.M10*cx,
		Mu11: s.M11 - s.M10*cy,
		Mu02: s.M02 - s.M01*cy,
	}
	c.Mu30 = s.M30 - cx*(3*c.Mu20+cx*s.M10)
	c.Mu21 = s.M21 - cx*(2*c.Mu11+cx*s.M01) - cy*c.Mu20
	c.Mu12 = s.M12 - cy*(2*c.Mu11+cy*s.M10) - cx*c.Mu02
	c.Mu03 = s.M03 - cy*(3*c.Mu02+cy*s.M01)
	m.Central = c

	s2 := 1 / (s.M00 * s.M00)
	s3 := s2 / math.Sqrt(s.M00)
	m.Normalized = ScaleNormalized{
		Nu20: c.Mu20 * s2,
		Nu11: c.Mu11 * s2,
		Nu02: c.Mu02 * s2,
		Nu30: c.Mu30 * s3,
		Nu21: c.Mu21 * s3,
		Nu12: c.Mu12 * s3,
		Nu03: c.Mu03 * s3,
	}
	return m
}

// Hu returns the seven Hu invariants of the given moments.
func Hu(m Moments) Vector {
	n := m.Normalized

	t0 := n.Nu30 + n.Nu12
	t1 := n.Nu21 + n.Nu03
	q0 := t0 * t0
	q1 := t1 * t1
	n4 := 4 * n.Nu11
	s := n.Nu20 + n.Nu02
	d := n.Nu20 - n.Nu02

	var hu Vector
	hu[0] = s
	hu[1] = d*d + n4*n.Nu11
	hu[3] = q0 + q1
	hu[5] = d*(q0-q1) + n4*t0*t1

	t0 *= q0 - 3*q1
	t1 *= 3*q0 - q1

	q0 = n.Nu30 - 3*n.Nu12
	q1 = 3*n.Nu21 - n.Nu03

	hu[2] = q0*q0 + q1*q1
	hu[4] = q0*t0 + q1*t1
	hu[6] = q1*t0 - q0*t1
	return hu
}

// HuFromMask is Compute followed by Hu.
func HuFromMask(mask *image.Gray) Vector {
	return Hu(Compute(mask))
}
