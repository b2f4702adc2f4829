package readoutpad

import (
	"fmt"
	"math"
)

// PadArray holds positioned pads built from one or more base shapes.
// Pads, IDs, Centers and Charges are index aligned.
type PadArray struct {
	BasePads []BasePadShape
	Pads     [][]Vec3
	IDs      []int
	Centers  []Vec3
	Charges  []float64
}

func NewPadArray(base ...BasePadShape) *PadArray {
	a := &PadArray{}
	for _, b := range base {
		a.AddBasePad(b)
	}
	return a
}

func (a *PadArray) AddBasePad(shape BasePadShape) {
	a.BasePads = append(a.BasePads, shape)
}

func (a *PadArray) Len() int {
	return len(a.Pads)
}

func RotateX(p Vec3, degree float64) Vec3 {
	theta := degree * math.Pi / 180
	return Vec3{
		p[0],
		p[1]*math.Cos(theta) - p[2]*math.Sin(theta),
		p[1]*math.Sin(theta) + p[2]*math.Cos(theta),
	}
}

func RotateY(p Vec3, degree float64) Vec3 {
	theta := degree * math.Pi / 180
	return Vec3{
		p[0]*math.Cos(theta) + p[2]*math.Sin(theta),
		p[1],
		-p[0]*math.Sin(theta) + p[2]*math.Cos(theta),
	}
}

func RotateZ(p Vec3, degree float64) Vec3 {
	theta := degree * math.Pi / 180
	return Vec3{
		p[0]*math.Cos(theta) - p[1]*math.Sin(theta),
		p[0]*math.Sin(theta) + p[1]*math.Cos(theta),
		p[2],
	}
}

// AddPads places a copy of base pad baseID rotated by X, then Y, then Z and
// translated to center.
func (a *PadArray) AddPads(center Vec3, baseID int, degX, degY, degZ float64, id int) error {
	if baseID < 0 || baseID >= len(a.BasePads) {
		return fmt.Errorf("base pad %d does not exist (%d registered)", baseID, len(a.BasePads))
	}
	origin := a.BasePads[baseID].Polygon

	polygon := make([]Vec3, len(origin))
	var centroid Vec3
	for i, v := range origin {
		r := RotateZ(RotateY(RotateX(v, degX), degY), degZ)
		for j := range r {
			r[j] += center[j]
			centroid[j] += r[j]
		}
		polygon[i] = r
	}
	if len(polygon) > 0 {
		for j := range centroid {
			centroid[j] /= float64(len(polygon))
		}
	}

	a.Pads = append(a.Pads, polygon)
	a.IDs = append(a.IDs, id)
	a.Centers = append(a.Centers, centroid)
	a.Charges = append(a.Charges, 0)
	return nil
}

// ResetCharges sets every pad charge to zero.
func (a *PadArray) ResetCharges() {
	for i := range a.Charges {
		a.Charges[i] = 0
	}
}

// Index returns the position of a pad id, or -1.
func (a *PadArray) Index(id int) int {
	for i, v := range a.IDs {
		if v == id {
			return i
		}
	}
	return -1
}

// Bounds returns the minimum and maximum vertex coordinate along axis.
func (a *PadArray) Bounds(axis int) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, pad := range a.Pads {
		for _, v := range pad {
			lo = math.Min(lo, v[axis])
			hi = math.Max(hi, v[axis])
		}
	}
	return lo, hi
}

// Projected returns the vertices of pad i on the given plane.
func (a *PadArray) Projected(i int, plane string) ([]float64, []float64) {
	i1, i2 := PlaneIndices(plane)
	xs := make([]float64, len(a.Pads[i]))
	ys := make([]float64, len(a.Pads[i]))
	for k, v := range a.Pads[i] {
		xs[k] = v[i1]
		ys[k] = v[i2]
	}
	return xs, ys
}

// Contains reports whether the point (x, y) lies inside the projection of
// pad i on the plane. Even-odd rule.
func (a *PadArray) Contains(i int, plane string, x, y float64) bool {
	xs, ys := a.Projected(i, plane)
	return pointInPolygon(xs, ys, x, y)
}

func pointInPolygon(xs, ys []float64, x, y float64) bool {
	inside := false
	n := len(xs)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		if (ys[i] > y) != (ys[j] > y) &&
			x < (xs[j]-xs[i])*(y-ys[i])/(ys[j]-ys[i])+xs[i] {
			inside = !inside
		}
	}
	return inside
}
