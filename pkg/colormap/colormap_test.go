package colormap

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/palette"
)

func TestParseHex(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{"#33b5b1", color.RGBA{0x33, 0xb5, 0xb1, 255}, false},
		{"d3d3d3", color.RGBA{0xd3, 0xd3, 0xd3, 255}, false},
		{"#fff", color.RGBA{255, 255, 255, 255}, false},
		{"#12345", color.RGBA{}, true},
		{"#zzzzzz", color.RGBA{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#b844a0", Hex(MustHex("#B844A0")))
	assert.Equal(t, "rgb(54,121,122)", RGB(MustHex("#36797A")))
}

func TestViridisEnds(t *testing.T) {
	t.Parallel()

	cm, err := Get("viridis")
	require.NoError(t, err)

	lo, err := cm.At(0)
	require.NoError(t, err)
	hi, err := cm.At(1)
	require.NoError(t, err)
	assert.Equal(t, "#440154", Hex(lo))
	assert.Equal(t, "#fde725", Hex(hi))

	_, err = cm.At(1.5)
	assert.ErrorIs(t, err, palette.ErrOverflow)
	_, err = cm.At(-0.1)
	assert.ErrorIs(t, err, palette.ErrUnderflow)
}

func TestReversed(t *testing.T) {
	t.Parallel()

	cm, err := Get("terrain_r")
	require.NoError(t, err)
	c, err := cm.At(0)
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", Hex(c))
}

func TestSample(t *testing.T) {
	t.Parallel()

	cm, err := Get("viridis")
	require.NoError(t, err)
	p := Sample(cm, 10)
	require.Len(t, p.Colors(), 10)
	for i, h := range viridisHex {
		assert.Equal(t, h, Hex(p.Colors()[i]))
	}
	assert.Len(t, Sample(cm, 1).Colors(), 1)
}

func TestGetUnknown(t *testing.T) {
	t.Parallel()

	_, err := Get("jet")
	assert.Error(t, err)

	cm, err := Get("blackbody")
	require.NoError(t, err)
	_, err = cm.At(0.5)
	assert.NoError(t, err)
}
