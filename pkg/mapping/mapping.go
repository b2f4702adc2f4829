// Package mapping relates readout pads to GET electronics channels. Maps
// come from text files or from the run database.
package mapping

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fendo/catmlib/pkg/logging"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

// Entry maps one pad id to its cobo, asad, aget and channel.
type Entry struct {
	ID      int `db:"PadID"`
	Cobo    int `db:"Cobo"`
	AsAd    int `db:"AsAd"`
	Aget    int `db:"Aget"`
	Channel int `db:"Channel"`
}

// ReadMapFile reads a map with columns id, cobo, asad, aget, channel
// separated by tabs or spaces. A non-numeric first line is taken as header.
func ReadMapFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening map file %s: %w", path, err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if len(fields) < 5 {
			return nil, fmt.Errorf("%s:%d: expected 5 columns, got %d", path, line, len(fields))
		}
		var v [5]int
		for i := range v {
			v[i], err = strconv.Atoi(fields[i])
			if err != nil {
				break
			}
		}
		if err != nil {
			if len(entries) == 0 && line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		entries = append(entries, Entry{ID: v[0], Cobo: v[1], AsAd: v[2], Aget: v[3], Channel: v[4]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading map file %s: %w", path, err)
	}
	return entries, nil
}

// MatchingIndices returns the positions of the entries that match every
// non-negative filter.
func MatchingIndices(entries []Entry, cobo, asad, aget, channel int) []int {
	match := func(filter, value int) bool {
		return filter < 0 || filter == value
	}
	indices := []int{}
	for i, e := range entries {
		if match(cobo, e.Cobo) && match(asad, e.AsAd) && match(aget, e.Aget) && match(channel, e.Channel) {
			indices = append(indices, i)
		}
	}
	return indices
}

func PadIDs(entries []Entry, indices []int) []int {
	ids := make([]int, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(entries) {
			ids = append(ids, entries[i].ID)
		}
	}
	return ids
}

// Column returns one electronics column of the map: cobo, asad, aget or
// channel.
func Column(entries []Entry, name string) ([]int, error) {
	out := make([]int, len(entries))
	for i, e := range entries {
		switch name {
		case "cobo":
			out[i] = e.Cobo
		case "asad":
			out[i] = e.AsAd
		case "aget":
			out[i] = e.Aget
		case "channel":
			out[i] = e.Channel
		default:
			return nil, fmt.Errorf("unknown map column %q", name)
		}
	}
	return out, nil
}
