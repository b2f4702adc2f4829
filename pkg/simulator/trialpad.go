// Package simulator holds the trial beam TPC layouts and a simple Monte
// Carlo of drift electrons reaching the readout pads.
package simulator

import (
	"fmt"
	"math"

	"github.com/fendo/catmlib/pkg/logging"
	"github.com/fendo/catmlib/pkg/readoutpad"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

const (
	trialSide     = 4.74
	trialPitch    = 5.0
	trialRow      = 11
	trial60Side   = 2.75
	trial60Pitch  = 3.0
	trial60NMax   = 21
	trial60Offset = 15.75

	BeamTPCType = "beamtpc"
)

func triangleArray(side float64) (*readoutpad.PadArray, error) {
	base, err := readoutpad.GenerateRegularNPolygon(3, side, 90)
	if err != nil {
		return nil, err
	}
	return readoutpad.NewPadArray(base), nil
}

// twoRowArray builds the 22 pad layouts; shift moves the second row along x
// in units of half a pitch.
func twoRowArray(shift float64) (*readoutpad.PadArray, error) {
	pad, err := triangleArray(trialSide)
	if err != nil {
		return nil, err
	}
	gid := 0
	for i := 0; i < trialRow; i++ {
		m := float64(readoutpad.Mod2(i - 1))
		center := readoutpad.Vec3{float64(i) * trialPitch / 2, 0, trialPitch / math.Sqrt(3) / 2 * m}
		if err := pad.AddPads(center, 0, 0, 180*m, 0, gid); err != nil {
			return nil, err
		}
		gid++
	}
	for i := 0; i < trialRow; i++ {
		m := float64(readoutpad.Mod2(i))
		center := readoutpad.Vec3{
			(float64(i) + shift) * trialPitch / 2,
			0,
			trialPitch/math.Sqrt(3)/2*m + math.Sqrt(3)*trialPitch/2,
		}
		if err := pad.AddPads(center, 0, 0, 180*m, 0, gid); err != nil {
			return nil, err
		}
		gid++
	}
	return pad, nil
}

// OriginalBeamTPCArray is the 22 pad layout without offsets.
func OriginalBeamTPCArray() (*readoutpad.PadArray, error) {
	return twoRowArray(0)
}

// OneFourthShiftBeamTPCArray shifts the second row by a quarter pad.
func OneFourthShiftBeamTPCArray() (*readoutpad.PadArray, error) {
	return twoRowArray(0.5)
}

// Beam60chArray is the three row layout with 60 smaller pads.
func Beam60chArray() (*readoutpad.PadArray, error) {
	pad, err := triangleArray(trial60Side)
	if err != nil {
		return nil, err
	}
	half := trial60Pitch / 2
	dz := math.Sqrt(3) * trial60Pitch / 2
	hz := trial60Pitch / math.Sqrt(3) / 2
	gid := 0

	add := func(x, z, m float64) error {
		err := pad.AddPads(readoutpad.Vec3{x - trial60Offset, 0, z}, 0, 0, 180*m, 0, gid)
		gid++
		return err
	}

	for i := 2; i <= trial60NMax; i++ {
		m := float64(readoutpad.Mod2(i - 1))
		if err := add((float64(i)-0.5)*half, hz*m, m); err != nil {
			return nil, err
		}
	}
	for i := 1; i < trial60NMax; i++ {
		m := float64(readoutpad.Mod2(i))
		if err := add(float64(i)*half, hz*m+dz, m); err != nil {
			return nil, err
		}
	}
	for i := 0; i < trial60NMax-1; i++ {
		m := float64(readoutpad.Mod2(i - 1))
		if err := add((float64(i)+0.5)*half, hz*m+2*dz, m); err != nil {
			return nil, err
		}
	}
	return pad, nil
}

// TrialBeamTPCArray selects a layout: 0 original, 1 one-fourth shift,
// 2 sixty channels.
func TrialBeamTPCArray(version int) (*readoutpad.PadArray, error) {
	switch version {
	case 0:
		return OriginalBeamTPCArray()
	case 1:
		return OneFourthShiftBeamTPCArray()
	case 2:
		return Beam60chArray()
	default:
		return nil, fmt.Errorf("trial beam tpc version %d does not exist", version)
	}
}

func TrialArray(padType string, version int) (*readoutpad.PadArray, error) {
	if padType != BeamTPCType {
		return nil, fmt.Errorf("trial pad type %q does not exist", padType)
	}
	return TrialBeamTPCArray(version)
}
