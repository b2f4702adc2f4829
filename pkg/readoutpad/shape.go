package readoutpad

import (
	"errors"
	"math"
)

// Vec3 is a position in detector coordinates [mm].
type Vec3 [3]float64

var ErrPolygonVertices = errors.New("polygon needs at least 3 vertices")

// AxisIndex maps an axis letter to its coordinate index. Unknown letters
// map to x.
func AxisIndex(axis byte) int {
	switch axis {
	case 'y':
		return 1
	case 'z':
		return 2
	default:
		return 0
	}
}

// PlaneIndices returns the coordinate indices of a two letter plane such as "xz".
func PlaneIndices(plane string) (int, int) {
	if len(plane) < 2 {
		return 0, 2
	}
	return AxisIndex(plane[0]), AxisIndex(plane[1])
}

type BasePadShape struct {
	Center  Vec3
	Polygon []Vec3
}

func (s *BasePadShape) SetCenter(x, y, z float64) {
	s.Center = Vec3{x, y, z}
}

func (s *BasePadShape) AddPolygon(v Vec3) {
	s.Polygon = append(s.Polygon, v)
}

// CenterPolygonDistance returns the distance from the center to every vertex.
func (s *BasePadShape) CenterPolygonDistance() []float64 {
	distances := make([]float64, len(s.Polygon))
	for i, v := range s.Polygon {
		distances[i] = distance(s.Center, v)
	}
	return distances
}

// PolygonVertexDistance returns the distance of every vertex pair (i<j), in order.
func (s *BasePadShape) PolygonVertexDistance() []float64 {
	var distances []float64
	for i := 0; i < len(s.Polygon); i++ {
		for j := i + 1; j < len(s.Polygon); j++ {
			distances = append(distances, distance(s.Polygon[i], s.Polygon[j]))
		}
	}
	return distances
}

func distance(a, b Vec3) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// GenerateRegularNPolygon builds a regular polygon with side length on the
// xz plane, rotated by theta degrees.
func GenerateRegularNPolygon(n int, length float64, theta float64) (BasePadShape, error) {
	var shape BasePadShape
	if n < 3 {
		return shape, ErrPolygonVertices
	}

	radius := length / (2 * math.Sin(math.Pi/float64(n)))
	rad := theta * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)

	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		x := radius * math.Cos(angle)
		z := radius * math.Sin(angle)
		shape.AddPolygon(Vec3{cos*x - sin*z, 0, sin*x + cos*z})
	}
	return shape, nil
}

// GenerateOblong4Polygon builds a rectangle on the given plane. Unknown
// planes give an empty polygon.
func GenerateOblong4Polygon(longLength float64, shortLength float64, plane string) BasePadShape {
	var shape BasePadShape
	l := longLength / 2
	s := shortLength / 2

	switch plane {
	case "yz", "zy":
		shape.AddPolygon(Vec3{0, s, l})
		shape.AddPolygon(Vec3{0, s, -l})
		shape.AddPolygon(Vec3{0, -s, -l})
		shape.AddPolygon(Vec3{0, -s, l})
	case "xy", "yx":
		shape.AddPolygon(Vec3{l, s, 0})
		shape.AddPolygon(Vec3{l, -s, 0})
		shape.AddPolygon(Vec3{-l, -s, 0})
		shape.AddPolygon(Vec3{-l, s, 0})
	case "xz", "zx":
		shape.AddPolygon(Vec3{l, 0, s})
		shape.AddPolygon(Vec3{l, 0, -s})
		shape.AddPolygon(Vec3{-l, 0, -s})
		shape.AddPolygon(Vec3{-l, 0, s})
	}
	return shape
}
