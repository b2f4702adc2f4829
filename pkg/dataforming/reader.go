// Package dataforming reads the text inputs of the CAT-M tools (MCA spectra,
// TOML run configurations, number lists) and provides the small histogram
// helpers shared by the analysers.
package dataforming

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// StrToArray parses whitespace separated floats. Invalid input is logged
// and gives an empty slice.
func StrToArray(s string) []float64 {
	fields := strings.Fields(s)
	values := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			logger.Info(fmt.Sprintf("Skipping invalid input: %s", s), "dataforming")
			return []float64{}
		}
		values = append(values, v)
	}
	return values
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// LoadNumbers returns the integers of every line made only of digits.
func LoadNumbers(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	var numbers []int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !isDigits(line) {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		numbers = append(numbers, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return numbers, nil
}

// TOMLDocument is a decoded TOML file with its keys in file order.
type TOMLDocument struct {
	Data map[string]any
	Keys []toml.Key
}

func ReadTOMLFile(path string) (*TOMLDocument, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	doc := &TOMLDocument{Data: map[string]any{}}
	md, err := toml.DecodeFile(path, &doc.Data)
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", path, err)
	}
	doc.Keys = md.Keys()
	return doc, nil
}

// Lookup returns the value at a dotted key path.
func (d *TOMLDocument) Lookup(key toml.Key) (any, bool) {
	var cur any = d.Data
	for _, k := range key {
		table, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = table[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Dump writes every key in file order, indented by its depth.
func (d *TOMLDocument) Dump(w io.Writer) error {
	for _, key := range d.Keys {
		v, ok := d.Lookup(key)
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", len(key)-1)
		name := key[len(key)-1]
		var err error
		switch val := v.(type) {
		case map[string]any:
			_, err = fmt.Fprintf(w, "%s%s:\n", indent, name)
		case []map[string]any:
			_, err = fmt.Fprintf(w, "%s%s: [%d tables]\n", indent, name, len(val))
		default:
			_, err = fmt.Fprintf(w, "%s%s: %#v\n", indent, name, val)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

const speDateLayout = "01/02/2006 15:04:05"

// Spectrum is one MCA spectrum read from an SPE file.
type Spectrum struct {
	X        []int
	Y        []int
	Name     string
	DateTime time.Time
}

// ReadSPEFile reads an ORTEC SPE spectrum.
func ReadSPEFile(path string) (*Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrOpenFile{Filename: path, Err: err}
	}
	defer f.Close()

	spe, err := ParseSPE(f)
	var noData *ErrNoDataSection
	if errors.As(err, &noData) {
		noData.Filename = path
	}
	if err != nil {
		return nil, err
	}
	return spe, nil
}

// ParseSPE reads an SPE spectrum from r.
func ParseSPE(r io.Reader) (*Spectrum, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	spe := &Spectrum{}
	for i := 0; i < len(lines); i++ {
		switch lines[i] {
		case "$SPEC_ID:":
			if i+1 < len(lines) {
				spe.Name = lines[i+1]
			}
		case "$DATE_MEA:":
			if i+1 < len(lines) {
				if t, err := time.Parse(speDateLayout, lines[i+1]); err == nil {
					spe.DateTime = t
				}
			}
		case "$DATA:":
			if err := readCounts(spe, lines[i+1:]); err != nil {
				return nil, err
			}
			return spe, nil
		}
	}
	return nil, &ErrNoDataSection{}
}

func readCounts(spe *Spectrum, lines []string) error {
	if len(lines) == 0 {
		return errors.New("missing channel range after $DATA:")
	}
	bounds := strings.Fields(lines[0])
	if len(bounds) < 2 {
		return fmt.Errorf("invalid channel range %q", lines[0])
	}
	first, err := strconv.Atoi(bounds[0])
	if err != nil {
		return fmt.Errorf("invalid channel range %q: %w", lines[0], err)
	}
	last, err := strconv.Atoi(bounds[1])
	if err != nil {
		return fmt.Errorf("invalid channel range %q: %w", lines[0], err)
	}

	n := last - first + 1
	for i := 1; i <= n && i < len(lines); i++ {
		if strings.HasPrefix(lines[i], "$") {
			break
		}
		v, err := strconv.Atoi(lines[i])
		if err != nil {
			return fmt.Errorf("invalid count at channel %d: %w", len(spe.Y), err)
		}
		spe.X = append(spe.X, len(spe.Y))
		spe.Y = append(spe.Y, v)
	}
	return nil
}
