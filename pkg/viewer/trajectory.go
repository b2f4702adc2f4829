// Package viewer draws the CAT-M detectors with hit patterns and tracks and
// provides the track kinematics used by those views.
package viewer

import (
	"errors"
	"math"

	"github.com/fendo/catmlib/pkg/readoutpad"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrZeroComponent = errors.New("direction component along the extrapolation axis is zero")
	ErrInvalidAxis   = errors.New("extrapolation axis must be 0 (x), 1 (y) or 2 (z)")
)

// FindNearestIndex returns the first index of the value closest to v, or -1
// for an empty slice.
func FindNearestIndex(values []float64, v float64) int {
	index := -1
	best := math.Inf(1)
	for i, a := range values {
		if d := math.Abs(a - v); d < best {
			best = d
			index = i
		}
	}
	return index
}

// DipoleTrack solves the motion of a charged particle in a uniform magnetic
// field along y with cyclotron frequency omega.
func DipoleTrack(v0, x0 readoutpad.Vec3, omega float64, t []float64) ([]float64, []float64, []float64) {
	x := make([]float64, len(t))
	y := make([]float64, len(t))
	z := make([]float64, len(t))
	for i, ti := range t {
		s, c := math.Sin(omega*ti), math.Cos(omega*ti)
		x[i] = v0[0]/omega*s + v0[2]/omega*(1-c) + x0[0]
		y[i] = v0[1]*ti + x0[1]
		z[i] = v0[2]/omega*s - v0[0]/omega*(1-c) + x0[2]
	}
	return x, y, z
}

func UnitVector(v readoutpad.Vec3) (readoutpad.Vec3, error) {
	n := floats.Norm(v[:], 2)
	if n == 0 {
		return v, ErrZeroComponent
	}
	return readoutpad.Vec3{v[0] / n, v[1] / n, v[2] / n}, nil
}

// ExtrapolatedPosition moves along dir from pos until coordinate axis
// reaches target.
func ExtrapolatedPosition(pos, dir readoutpad.Vec3, target float64, axis int) (readoutpad.Vec3, error) {
	if axis < 0 || axis > 2 {
		return readoutpad.Vec3{}, ErrInvalidAxis
	}
	if dir[axis] == 0 {
		return readoutpad.Vec3{}, ErrZeroComponent
	}
	t := (target - pos[axis]) / dir[axis]
	var out readoutpad.Vec3
	for i := range out {
		out[i] = pos[i] + t*dir[i]
	}
	out[axis] = target
	return out, nil
}
