package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMap = "id\tcobo\tasad\taget\tchannel\n" +
	"0\t0\t0\t0\t2\n" +
	"1\t0\t0\t1\t3\n" +
	"2\t0\t1\t0\t2\n" +
	"3\t1\t0\t0\t2\n"

func sampleEntries(t *testing.T) []Entry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "map.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleMap), 0o644))
	entries, err := ReadMapFile(path)
	require.NoError(t, err)
	return entries
}

func TestReadMapFile(t *testing.T) {
	t.Parallel()

	entries := sampleEntries(t)
	require.Len(t, entries, 4)
	assert.Equal(t, Entry{ID: 1, Cobo: 0, AsAd: 0, Aget: 1, Channel: 3}, entries[1])

	bad := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("0 0 0 0 1\n1 x 0 0 1\n"), 0o644))
	_, err := ReadMapFile(bad)
	assert.ErrorContains(t, err, "bad.txt:2")

	short := filepath.Join(t.TempDir(), "short.txt")
	require.NoError(t, os.WriteFile(short, []byte("0 0 0\n"), 0o644))
	_, err = ReadMapFile(short)
	assert.Error(t, err)
}

func TestMatchingIndices(t *testing.T) {
	t.Parallel()

	entries := sampleEntries(t)
	tests := []struct {
		name                      string
		cobo, asad, aget, channel int
		want                      []int
	}{
		{"all", -1, -1, -1, -1, []int{0, 1, 2, 3}},
		{"cobo 0", 0, -1, -1, -1, []int{0, 1, 2}},
		{"channel 2", -1, -1, -1, 2, []int{0, 2, 3}},
		{"exact", 0, 0, 1, 3, []int{1}},
		{"none", 5, -1, -1, -1, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchingIndices(entries, tt.cobo, tt.asad, tt.aget, tt.channel)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []int{2, 3}, PadIDs(entries, []int{2, 3, 9}))
}

func TestColumn(t *testing.T) {
	t.Parallel()

	entries := sampleEntries(t)
	col, err := Column(entries, "aget")
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 0}, col)

	_, err = Column(entries, "pad")
	assert.Error(t, err)
}

func TestChannelMapDatabase(t *testing.T) {
	t.Parallel()

	db, err := ConnectToDatabase("sqlite", "", "", "", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, CreateSchema(db))
	entries := sampleEntries(t)

	require.NoError(t, StoreChannelMap(db, "beam-tpc", entries[:2], 1, 10))
	require.NoError(t, StoreChannelMap(db, "beam-tpc", entries[2:], 11, 20))
	require.NoError(t, StoreChannelMap(db, "recoil-tpc", entries, 1, 20))

	got, err := LoadChannelMap(db, "beam-tpc", 5)
	require.NoError(t, err)
	assert.Equal(t, entries[:2], got)

	got, err = LoadChannelMap(db, "beam-tpc", 11)
	require.NoError(t, err)
	assert.Equal(t, entries[2:], got)

	got, err = LoadChannelMap(db, "beam-tpc", 30)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Error(t, StoreChannelMap(db, "ssd", entries, 5, 1))

	_, err = ConnectToDatabase("postgres", "", "", "", "")
	assert.Error(t, err)
}
