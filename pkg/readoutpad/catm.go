package readoutpad

import (
	"fmt"
	"math"
)

const (
	beamPadSide   = 4.74
	beamPadPitch  = 5.0
	beamPadRow    = 11
	beamPadY      = -99.0
	beamPadZ      = -255.0
	beamPadZShift = 2.886751345948129

	recoilPadSide  = 6.9133974596
	recoilPadPitch = 7.0
	recoilRows     = 44
	recoilColumns  = 23
	recoilZOffset  = -152.25

	ssdStripLength = 90.6
	ssdStrips      = 8
	ssdX           = 255.0
	ssdY           = 54.0
)

var ssdBlockZ = []float64{-42.55, 65.45, 168.45}

// Mod2 is the non-negative remainder of i/2.
func Mod2(i int) int {
	return ((i % 2) + 2) % 2
}

func sign(i int) float64 {
	if Mod2(i) == 0 {
		return 1
	}
	return -1
}

// BeamTPCArray returns the 22 triangular beam TPC pads (2 rows of 11).
func BeamTPCArray() (*PadArray, error) {
	base, err := GenerateRegularNPolygon(3, beamPadSide, 90)
	if err != nil {
		return nil, err
	}
	pad := NewPadArray(base)
	gid := 0

	for i := 0; i < beamPadRow; i++ {
		m := float64(Mod2(i - 1))
		center := Vec3{
			float64(i)*beamPadPitch/2 - 12.5,
			beamPadY,
			beamPadPitch/math.Sqrt(3)/2*m - beamPadZShift + beamPadZ,
		}
		if err := pad.AddPads(center, 0, 0, 180*m, 0, gid); err != nil {
			return nil, err
		}
		gid++
	}
	for i := 0; i < beamPadRow; i++ {
		m := float64(Mod2(i))
		center := Vec3{
			float64(i)*beamPadPitch/2 - 12.5,
			beamPadY,
			beamPadPitch/math.Sqrt(3)/2*m + math.Sqrt(3)*beamPadPitch/2 - beamPadZShift + beamPadZ,
		}
		if err := pad.AddPads(center, 0, 0, 180*m, 0, gid); err != nil {
			return nil, err
		}
		gid++
	}
	return pad, nil
}

// RecoilTPCArray returns the 4048 triangular recoil TPC pads, two mirrored
// halves of 44 rows with 23+23 pads each.
func RecoilTPCArray() (*PadArray, error) {
	base, err := GenerateRegularNPolygon(3, recoilPadSide, 90)
	if err != nil {
		return nil, err
	}
	pad := NewPadArray(base)
	h := recoilPadPitch * math.Sqrt(3) / 2
	gid := 0

	add := func(x, z, degY float64) error {
		err := pad.AddPads(Vec3{x, beamPadY, z}, 0, 0, degY, 0, gid)
		gid++
		return err
	}

	for j := 0; j < recoilRows; j++ {
		z := recoilPadPitch*float64(j) + recoilZOffset
		for i := 0; i < recoilColumns; i++ {
			x := -float64(i)*h - h/3
			if i%2 != 0 {
				x -= h / 3
			}
			if err := add(x, z, -90*sign(i)); err != nil {
				return nil, err
			}
		}
		for i := 0; i < recoilColumns; i++ {
			x := -float64(i)*h - h*2/3
			if i%2 != 0 {
				x = -float64(i)*h - h/3
			}
			if err := add(x, z+recoilPadPitch/2, -90*sign(i+1)); err != nil {
				return nil, err
			}
		}
	}

	for j := 0; j < recoilRows; j++ {
		z := recoilPadPitch*float64(j) + recoilZOffset
		for i := 0; i < recoilColumns; i++ {
			x := float64(i)*h + h/3
			if i%2 != 0 {
				x = float64(i)*h + h*2/3
			}
			if err := add(x, z, -90*sign(i+1)); err != nil {
				return nil, err
			}
		}
		for i := 0; i < recoilColumns; i++ {
			x := float64(i)*h + h*2/3
			if i%2 != 0 {
				x = float64(i)*h + h/3
			}
			if err := add(x, z+recoilPadPitch/2, -90*sign(i)); err != nil {
				return nil, err
			}
		}
	}
	return pad, nil
}

// SSDArray returns the 96 silicon strips on both sides of the recoil TPC.
// Ids 0-47 sit at x=-255 and 48-95 at x=+255, upper layer first.
func SSDArray() (*PadArray, error) {
	pitch := ssdStripLength / ssdStrips
	pad := NewPadArray(GenerateOblong4Polygon(pitch, ssdStripLength, "yz"))
	gid := 0

	for _, x := range []float64{-ssdX, ssdX} {
		for _, y := range []float64{ssdY, -ssdY} {
			for _, zb := range ssdBlockZ {
				for i := 0; i < ssdStrips; i++ {
					center := Vec3{x, y, zb + pitch*float64(i) - ssdStripLength/2}
					if err := pad.AddPads(center, 0, 0, 0, 0, gid); err != nil {
						return nil, err
					}
					gid++
				}
			}
		}
	}
	return pad, nil
}

const (
	RecoilTPC = "recoil-tpc"
	BeamTPC   = "beam-tpc"
	SSD       = "ssd"
)

// DetectorArray builds the pad array of a named CAT-M detector.
func DetectorArray(name string) (*PadArray, error) {
	switch name {
	case RecoilTPC:
		return RecoilTPCArray()
	case BeamTPC:
		return BeamTPCArray()
	case SSD:
		return SSDArray()
	default:
		return nil, fmt.Errorf("detector %q does not exist", name)
	}
}
