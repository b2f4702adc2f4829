// Package xcfg reads the XML configuration files of the GET electronics
// and extracts the per-channel threshold settings.
package xcfg

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/exp/constraints"
)

// ClassifyIndices groups the positions of values by value.
func ClassifyIndices[T comparable](values []T) map[T][]int {
	out := make(map[T][]int)
	for i, v := range values {
		out[v] = append(out[v], i)
	}
	return out
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ReadTree parses an XCFG file and returns its root element.
func ReadTree(path string) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("error reading xcfg %s: %w", path, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("xcfg %s has no root element", path)
	}
	return root, nil
}

func FindNode(root *etree.Element, id string) *etree.Element {
	return root.FindElement(fmt.Sprintf(".//Node[@id='%s']", id))
}

func FindInstance(node *etree.Element, id string) *etree.Element {
	return node.FindElement(fmt.Sprintf(".//Instance[@id='%s']", id))
}

// FindBlock finds a descendant such as AsAd or Aget by tag and id.
func FindBlock(inst *etree.Element, tag, id string) *etree.Element {
	return inst.FindElement(fmt.Sprintf(".//%s[@id='%s']", tag, id))
}

// PrintTree prints the elements found depth levels below el.
func PrintTree(w io.Writer, el *etree.Element, depth int) error {
	return printTree(w, el, 0, depth)
}

func printTree(w io.Writer, el *etree.Element, level, depth int) error {
	if level == depth {
		attrs := make([]string, 0, len(el.Attr))
		for _, a := range el.Attr {
			attrs = append(attrs, a.Key+":"+a.Value)
		}
		if _, err := fmt.Fprintf(w, "%s%s: map[%s]\n", strings.Repeat("  ", level), el.Tag, strings.Join(attrs, " ")); err != nil {
			return err
		}
		return nil
	}
	for _, child := range el.ChildElements() {
		if err := printTree(w, child, level+1, depth); err != nil {
			return err
		}
	}
	return nil
}

// Entry is one channel row of the threshold map.
type Entry struct {
	Cobo            string
	AsAd            string
	Aget            string
	Channel         string
	CoboID          string
	GlobalThreshold string
	LSBThreshold    string
}

var Header = []string{"cobo", "asad", "aget", "channel", "coboId", "global_threshold", "LSB_threshold"}

var blockIDs = []string{"*", "0", "1", "2", "3"}

func textOr(el *etree.Element, path, missing string) string {
	found := el.FindElement(path)
	if found == nil {
		return missing
	}
	return found.Text()
}

// ThresholdMap collects the thresholds of every channel under the CoBo node.
// Missing values are reported as "-1".
func ThresholdMap(root *etree.Element) ([]Entry, error) {
	node := FindNode(root, "CoBo")
	if node == nil {
		return nil, fmt.Errorf("no CoBo node in %s", root.Tag)
	}

	var entries []Entry
	for _, cobo := range blockIDs {
		inst := FindInstance(node, cobo)
		if inst == nil {
			continue
		}
		coboID := textOr(inst, "./Module/coboId", "-1")

		for _, asadID := range blockIDs {
			asad := FindBlock(inst, "AsAd", asadID)
			if asad == nil {
				continue
			}
			for _, agetID := range blockIDs {
				aget := FindBlock(asad, "Aget", agetID)
				if aget == nil {
					continue
				}
				global := textOr(aget, "./Global/Reg1/GlobalThresholdValue", "-1")
				for _, ch := range aget.SelectElements("channel") {
					entries = append(entries, Entry{
						Cobo:            cobo,
						AsAd:            asadID,
						Aget:            agetID,
						Channel:         ch.SelectAttrValue("id", ""),
						CoboID:          coboID,
						GlobalThreshold: global,
						LSBThreshold:    textOr(ch, "./LSBThresholdValue", "-1"),
					})
				}
			}
		}
	}
	return entries, nil
}

// WriteText converts an XCFG file to the threshold TSV.
// SummarizeThresholds writes the number of channels at each LSB threshold in
// ascending order. Values that are not integers count as -1.
func SummarizeThresholds(w io.Writer, entries []Entry) error {
	values := make([]int, len(entries))
	for i, e := range entries {
		v, err := strconv.Atoi(strings.TrimSpace(e.LSBThreshold))
		if err != nil {
			v = -1
		}
		values[i] = v
	}
	groups := ClassifyIndices(values)
	if _, err := fmt.Fprintf(w, "channels : %d\n", len(entries)); err != nil {
		return err
	}
	for _, v := range SortedKeys(groups) {
		if _, err := fmt.Fprintf(w, "LSB threshold %d : %d channels\n", v, len(groups[v])); err != nil {
			return err
		}
	}
	return nil
}

func WriteText(in, out string) error {
	root, err := ReadTree(in)
	if err != nil {
		return err
	}
	entries, err := ThresholdMap(root)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("error creating %s: %w", out, err)
	}
	if err := writeEntries(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("error writing %s: %w", out, err)
	}
	return f.Close()
}

func writeEntries(w io.Writer, entries []Entry) error {
	tw := csv.NewWriter(w)
	tw.Comma = '\t'
	if err := tw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{e.Cobo, e.AsAd, e.Aget, e.Channel, e.CoboID, e.GlobalThreshold, e.LSBThreshold}
		if err := tw.Write(row); err != nil {
			return err
		}
	}
	tw.Flush()
	return tw.Error()
}

// ReadText reads a threshold TSV written by WriteText.
func ReadText(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %s: %w", path, err)
	}
	defer f.Close()

	tr := csv.NewReader(f)
	tr.Comma = '\t'
	rows, err := tr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	if len(rows[0]) != len(Header) {
		return nil, fmt.Errorf("%s: unexpected header %v", path, rows[0])
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, r := range rows[1:] {
		entries = append(entries, Entry{r[0], r[1], r[2], r[3], r[4], r[5], r[6]})
	}
	return entries, nil
}
