package circuit

import (
	"fmt"
	"sort"
)

const (
	ConnSeries        = "series"
	ConnParallel      = "parallel"
	ConnCloseParallel = "parallel-close"
	ConnOpenParallel  = "parallel-open"
	ConnDown          = "down"
)

// Connection records how two components of an Array are wired. Skip and the
// offsets only matter for drawing.
type Connection struct {
	Type    string
	Pair    [2]int
	Skip    int
	OffsetX float64
	OffsetY float64
}

// Array is an ordered set of components and the connections between them.
type Array struct {
	components  []*Component
	connections []Connection
}

func NewArray(components ...*Component) *Array {
	a := &Array{}
	for _, c := range components {
		a.Add(c)
	}
	return a
}

func (a *Array) Add(c *Component) {
	a.components = append(a.components, c)
}

func (a *Array) Components() []*Component {
	return a.components
}

// IndexOf returns the position of the component called name, or -1.
func (a *Array) IndexOf(name string) int {
	for i, c := range a.components {
		if c.Name == name {
			return i
		}
	}
	return -1
}

func (a *Array) pair(c1, c2 *Component) ([2]int, error) {
	i1, i2 := a.IndexOf(c1.Name), a.IndexOf(c2.Name)
	if i1 < 0 {
		return [2]int{}, fmt.Errorf("component %s is not in the array", c1.Name)
	}
	if i2 < 0 {
		return [2]int{}, fmt.Errorf("component %s is not in the array", c2.Name)
	}
	return [2]int{i1, i2}, nil
}

// ConnectSeries wires c1 -> c2.
func (a *Array) ConnectSeries(c1, c2 *Component) error {
	p, err := a.pair(c1, c2)
	if err != nil {
		return err
	}
	c1.Post.link(c2.Pre.Name)
	c2.Pre.link(c1.Post.Name)
	a.connections = append(a.connections, Connection{Type: ConnSeries, Pair: p})
	return nil
}

// ConnectParallel wires both ends of c1 and c2 together.
func (a *Array) ConnectParallel(c1, c2 *Component) error {
	p, err := a.pair(c1, c2)
	if err != nil {
		return err
	}
	c1.Pre.link(c2.Pre.Name)
	c2.Pre.link(c1.Pre.Name)
	c1.Post.link(c2.Post.Name)
	c2.Post.link(c1.Post.Name)
	a.connections = append(a.connections, Connection{Type: ConnParallel, Pair: p})
	return nil
}

// ConnectCloseParallel joins the post junctions of two branches.
func (a *Array) ConnectCloseParallel(c1, c2 *Component, skip int) error {
	p, err := a.pair(c1, c2)
	if err != nil {
		return err
	}
	c1.Post.link(c2.Post.Name)
	c2.Post.link(c1.Post.Name)
	a.connections = append(a.connections, Connection{Type: ConnCloseParallel, Pair: p, Skip: skip})
	return nil
}

// ConnectOpenParallel starts a new branch from the pre junction of c1.
func (a *Array) ConnectOpenParallel(c1, c2 *Component, dx, dy float64) error {
	p, err := a.pair(c1, c2)
	if err != nil {
		return err
	}
	c1.Pre.link(c2.Pre.Name)
	c2.Pre.link(c1.Pre.Name)
	a.connections = append(a.connections, Connection{Type: ConnOpenParallel, Pair: p, OffsetX: dx, OffsetY: dy})
	return nil
}

// ConnectDown adds a plain wire used by drawings.
func (a *Array) ConnectDown() {
	a.connections = append(a.connections, Connection{Type: ConnDown, Pair: [2]int{-1, -1}})
}

func (a *Array) Connections() []Connection {
	return a.connections
}

// BuildNodes maps every junction to its sorted, unique neighbours.
func (a *Array) BuildNodes() map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, c := range a.components {
		for _, j := range []Junction{c.Pre, c.Post} {
			set, ok := sets[j.Name]
			if !ok {
				set = make(map[string]struct{})
				sets[j.Name] = set
			}
			for _, l := range j.Links {
				set[l] = struct{}{}
			}
		}
	}

	nodes := make(map[string][]string, len(sets))
	for name, set := range sets {
		list := make([]string, 0, len(set))
		for l := range set {
			list = append(list, l)
		}
		sort.Strings(list)
		nodes[name] = list
	}
	return nodes
}
