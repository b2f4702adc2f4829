// Package circuit describes divider circuits for the TPC high voltage
// chain, turns them into SPICE netlists and runs them through ngspice.
package circuit

import (
	"fmt"
	"strconv"

	"github.com/fendo/catmlib/pkg/logging"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

const (
	Resistor  = "resistor"
	Capacitor = "capacitor"
	Inductor  = "inductor"
)

// Junction is one end of a component and the junctions wired to it.
type Junction struct {
	Name  string
	Links []string
}

func (j *Junction) link(name string) {
	j.Links = append(j.Links, name)
}

type Component struct {
	Name   string
	Kind   string
	Value  float64
	Prefix string
	Unit   string
	Pre    Junction
	Post   Junction
}

// NewComponent builds a component with its pre junction J<name>-1 and post
// junction J<name>-2 linked to each other.
func NewComponent(name, kind string, value float64, unitPrefix string) (*Component, error) {
	var unit string
	switch kind {
	case "r", "resistor", "resitor":
		kind, unit = Resistor, "Ω"
	case "c", "capacitor":
		kind, unit = Capacitor, "F"
	case "i", "inductor":
		kind, unit = Inductor, "H"
	default:
		return nil, fmt.Errorf("unknown component type %q", kind)
	}
	pre := "J" + name + "-1"
	post := "J" + name + "-2"
	return &Component{
		Name:   name,
		Kind:   kind,
		Value:  value,
		Prefix: unitPrefix,
		Unit:   unitPrefix + unit,
		Pre:    Junction{Name: pre, Links: []string{post}},
		Post:   Junction{Name: post, Links: []string{pre}},
	}, nil
}

// Title is e.g. "R0 = 3.5 [MΩ]".
func (c *Component) Title() string {
	return fmt.Sprintf("%s = %s [%s]", c.Name, strconv.FormatFloat(c.Value, 'g', -1, 64), c.Unit)
}

func (c *Component) String() string {
	return fmt.Sprintf("name: %s, type: %s, value: %g, unit: %s", c.Name, c.Kind, c.Value, c.Unit)
}

// ResistanceMultiplier converts a unit prefix into a factor on ohms.
func ResistanceMultiplier(prefix string) (float64, error) {
	switch prefix {
	case "":
		return 1, nil
	case "k":
		return 1e3, nil
	case "M":
		return 1e6, nil
	case "m":
		return 1e-3, nil
	default:
		return 0, &ErrUnsupportedUnit{Prefix: prefix}
	}
}
