package dataforming

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordLogger struct {
	messages []string
}

func (r *recordLogger) Info(message, module string) {
	r.messages = append(r.messages, module+": "+message)
}

func (r *recordLogger) Error(message string) {
	r.messages = append(r.messages, "error: "+message)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestStrToArray(t *testing.T) {
	rec := &recordLogger{}
	SetLogger(rec)
	t.Cleanup(func() { SetLogger(&recordLogger{}) })

	assert.Equal(t, []float64{1, -2.5, 3e2}, StrToArray(" 1 -2.5\t3e2 "))
	assert.Equal(t, []float64{}, StrToArray("1 two 3"))
	assert.Equal(t, []string{"dataforming: Skipping invalid input: 1 two 3"}, rec.messages)
}

func TestLoadNumbers(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "numbers.txt", "12\n  7 \n-3\nabc\n\n0042\n1.5\n")
	got, err := LoadNumbers(path)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 7, 42}, got)

	_, err = LoadNumbers(filepath.Join(t.TempDir(), "missing"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

const sampleSPE = `$SPEC_ID:
calibration pulser
$DATE_MEA:
06/30/2025 11:18:37
$MEAS_TIM:
100 100
$DATA:
0 4
1
5
9
5
1
$ROI:
0
$ENER_FIT:
0.0 1.0
`

func TestReadSPEFile(t *testing.T) {
	t.Parallel()

	spe, err := ReadSPEFile(writeFile(t, "a.spe", sampleSPE))
	require.NoError(t, err)
	assert.Equal(t, "calibration pulser", spe.Name)
	assert.Equal(t, time.Date(2025, 6, 30, 11, 18, 37, 0, time.UTC), spe.DateTime)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, spe.X)
	assert.Equal(t, []int{1, 5, 9, 5, 1}, spe.Y)
}

func TestReadSPEFileStopsAtSection(t *testing.T) {
	t.Parallel()

	spe, err := ParseSPE(strings.NewReader("$DATA:\n0 9\n3\n4\n$ENER_FIT:\n1\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, spe.Y)
	assert.Empty(t, spe.Name)
	assert.True(t, spe.DateTime.IsZero())
}

func TestReadSPEFileErrors(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "nodata.spe", "$SPEC_ID:\nx\n")
	_, err := ReadSPEFile(path)
	var noData *ErrNoDataSection
	require.ErrorAs(t, err, &noData)
	assert.Equal(t, path, noData.Filename)

	_, err = ParseSPE(strings.NewReader("$DATA:\n0 2\n1\nx\n"))
	assert.Error(t, err)

	_, err = ReadSPEFile(filepath.Join(t.TempDir(), "none.spe"))
	var openErr *ErrOpenFile
	assert.ErrorAs(t, err, &openErr)
}

func TestReadTOMLFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "run.toml", `zeta = 1
alpha = "b"

[detector]
name = "recoil-tpc"
pressure = 40.0
`)
	doc, err := ReadTOMLFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Data["zeta"])

	var buf bytes.Buffer
	require.NoError(t, doc.Dump(&buf))
	assert.Equal(t, "zeta: 1\nalpha: \"b\"\ndetector:\n  name: \"recoil-tpc\"\n  pressure: 40\n", buf.String())

	_, err = ReadTOMLFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorContains(t, err, "missing.toml")

	_, err = ReadTOMLFile(writeFile(t, "bad.toml", "a = = 1"))
	assert.ErrorContains(t, err, "error decoding")
}

func TestHistogramHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{0, 2, 2, 2}, HistogramFromPoints([]int{0, 1, 2}, []int{1, 0, 3}))

	n, idx := FindPeaks([]int{0, 3, 1, 1, 4, 4, 2, 5, 0})
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{1, 7}, idx)

	n, idx = FindPeaks([]float64{1, 2})
	assert.Zero(t, n)
	assert.Empty(t, idx)

	assert.Equal(t, []float64{3, 7, 5}, RebinHistogram([]float64{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, []float64{1, 2}, RebinHistogram([]float64{1, 2}, 1))
	assert.Equal(t, []int{10, 30}, TransformList([]int{1, 3}, 10, 0))
	assert.Equal(t, []int{15, 35}, TransformList([]int{1, 3}, 10, 5))
}

func TestGaussianFilter1D(t *testing.T) {
	t.Parallel()

	flat := GaussianFilter1D([]float64{2, 2, 2, 2, 2}, 1.5)
	assert.True(t, cmp.Equal([]float64{2, 2, 2, 2, 2}, flat, cmpopts.EquateApprox(0, 1e-12)), flat)

	impulse := GaussianFilter1D([]float64{0, 0, 0, 0, 1, 0, 0, 0, 0}, 1)
	assert.InDelta(t, 1.0, sum(impulse), 1e-12)
	assert.InDelta(t, impulse[3], impulse[5], 1e-15)
	assert.Greater(t, impulse[4], impulse[3])

	assert.Equal(t, []float64{1, 2}, GaussianFilter1D([]float64{1, 2}, 0))
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

func TestReflect(t *testing.T) {
	t.Parallel()

	// d c b a | a b c d | d c b a
	got := []int{}
	for i := -4; i < 8; i++ {
		got = append(got, reflect(i, 4))
	}
	assert.Equal(t, []int{3, 2, 1, 0, 0, 1, 2, 3, 3, 2, 1, 0}, got)
}

func TestTerminalHistogram(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{1, 2, 0, 0}, TerminalRebin([]float64{1, 2}, 4))
	assert.Equal(t, []float64{1.5, 3.5}, TerminalRebin([]float64{1, 2, 3, 4}, 2))

	assert.Equal(t, []int{0, 0}, NormalizeHeights([]float64{0, 0}, 10))
	assert.Equal(t, []int{2, 4}, NormalizeHeights([]float64{1, 2}, 4))
	// halves round to even
	assert.Equal(t, []int{2, 4}, NormalizeHeights([]float64{2.5, 4}, 4))

	var buf bytes.Buffer
	require.NoError(t, DrawTerminalHistogram(&buf, []int{0, 2, 1}, 2))
	assert.Equal(t, " . \n ..\n", buf.String())
}
