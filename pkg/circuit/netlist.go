package circuit

import (
	"fmt"
	"strconv"
	"strings"
)

const Ground = "0"

// Element is one SPICE card. Nodes are (positive, negative).
type Element struct {
	Type  string
	Name  string
	Nodes [2]string
	Value float64
}

// Card returns the element name as SPICE sees it, prefixed by its type.
func (e Element) Card() string {
	if strings.HasPrefix(strings.ToUpper(e.Name), e.Type) {
		return e.Name
	}
	return e.Type + e.Name
}

type Netlist struct {
	Title       string
	Temperature float64
	Elements    []Element
}

func NewNetlist(title string) *Netlist {
	return &Netlist{Title: title, Temperature: 25}
}

func (n *Netlist) AddResistor(name, pos, neg string, ohms float64) {
	n.Elements = append(n.Elements, Element{Type: "R", Name: name, Nodes: [2]string{pos, neg}, Value: ohms})
}

// AddVoltageSource adds a DC source between node and ground.
func (n *Netlist) AddVoltageSource(name, node string, volts float64) {
	n.Elements = append(n.Elements, Element{Type: "V", Name: name, Nodes: [2]string{node, Ground}, Value: volts})
}

// SetSourceValue changes the value of an existing voltage source.
func (n *Netlist) SetSourceValue(name string, volts float64) error {
	for i, e := range n.Elements {
		if e.Type == "V" && e.Name == name {
			n.Elements[i].Value = volts
			return nil
		}
	}
	return fmt.Errorf("voltage source %s not found in %q", name, n.Title)
}

// Sources returns the voltage sources in insertion order.
func (n *Netlist) Sources() []Element {
	var out []Element
	for _, e := range n.Elements {
		if e.Type == "V" {
			out = append(out, e)
		}
	}
	return out
}

// Clone copies the netlist so sources can be changed independently.
func (n *Netlist) Clone() *Netlist {
	c := *n
	c.Elements = append([]Element(nil), n.Elements...)
	return &c
}

func formatValue(e Element) string {
	v := strconv.FormatFloat(e.Value, 'g', -1, 64)
	if e.Type == "V" {
		return "DC " + v
	}
	return v
}

// String renders the SPICE deck for an operating point analysis.
func (n *Netlist) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, ".title %s\n", n.Title)
	for _, e := range n.Elements {
		fmt.Fprintf(&b, "%s %s %s %s\n", e.Card(), e.Nodes[0], e.Nodes[1], formatValue(e))
	}
	t := strconv.FormatFloat(n.Temperature, 'g', -1, 64)
	fmt.Fprintf(&b, ".options TEMP=%s TNOM=%s\n", t, t)
	b.WriteString(".op\n")
	b.WriteString(".end\n")
	return b.String()
}

type placed struct {
	pre, post string
}

// BuildNetlist turns the series and parallel connections of an array into
// resistors. A junction named gnd becomes the ground node. Every component
// is added once; drawing-only connections are skipped.
func BuildNetlist(array *Array, gnd, title string) (*Netlist, error) {
	n := NewNetlist(title)
	comps := array.Components()
	added := make(map[int]placed)

	node := func(j string) string {
		if j == gnd {
			return Ground
		}
		return j
	}
	add := func(idx int, pre, post string) error {
		c := comps[idx]
		if c.Kind != Resistor {
			return fmt.Errorf("component %s: only resistors can be simulated", c.Name)
		}
		mult, err := ResistanceMultiplier(c.Prefix)
		if err != nil {
			return fmt.Errorf("component %s: %w", c.Name, err)
		}
		n.AddResistor(c.Name, pre, post, c.Value*mult)
		added[idx] = placed{pre: pre, post: post}
		return nil
	}

	for _, conn := range array.Connections() {
		i1, i2 := conn.Pair[0], conn.Pair[1]
		switch conn.Type {
		case ConnSeries:
			c1, c2 := comps[i1], comps[i2]
			post1 := node(c1.Post.Name)
			if _, ok := added[i1]; !ok {
				if err := add(i1, node(c1.Pre.Name), post1); err != nil {
					return nil, err
				}
			}
			if _, ok := added[i2]; !ok {
				if err := add(i2, post1, node(c2.Post.Name)); err != nil {
					return nil, err
				}
			}
		case ConnParallel:
			c1 := comps[i1]
			pre, post := node(c1.Pre.Name), node(c1.Post.Name)
			if _, ok := added[i1]; !ok {
				if err := add(i1, pre, post); err != nil {
					return nil, err
				}
			}
			if _, ok := added[i2]; !ok {
				p := added[i1]
				if err := add(i2, node(p.pre), node(p.post)); err != nil {
					return nil, err
				}
			}
		}
	}
	return n, nil
}
