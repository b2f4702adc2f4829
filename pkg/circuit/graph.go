package circuit

import (
	"sort"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ConnectionGraph is the junction network of an Array as an undirected
// graph.
type ConnectionGraph struct {
	Graph *simple.UndirectedGraph
	names []string
	ids   map[string]int64
}

func (a *Array) ConnectionGraph() *ConnectionGraph {
	nodes := a.BuildNodes()
	keys := make([]string, 0, len(nodes))
	for k := range nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	g := &ConnectionGraph{Graph: simple.NewUndirectedGraph(), ids: make(map[string]int64)}
	id := func(name string) int64 {
		if v, ok := g.ids[name]; ok {
			return v
		}
		v := int64(len(g.names))
		g.ids[name] = v
		g.names = append(g.names, name)
		g.Graph.AddNode(simple.Node(v))
		return v
	}
	for _, k := range keys {
		from := id(k)
		for _, n := range nodes[k] {
			to := id(n)
			if from == to {
				continue
			}
			g.Graph.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
		}
	}
	return g
}

// Name returns the junction behind a graph node id.
func (g *ConnectionGraph) Name(id int64) string {
	if id < 0 || int(id) >= len(g.names) {
		return ""
	}
	return g.names[id]
}

// Neighbours lists the junctions directly connected to name.
func (g *ConnectionGraph) Neighbours(name string) []string {
	id, ok := g.ids[name]
	if !ok {
		return nil
	}
	var out []string
	it := g.Graph.From(id)
	for it.Next() {
		out = append(out, g.Name(it.Node().ID()))
	}
	sort.Strings(out)
	return out
}

// Components lists the groups of connected junctions, each sorted, ordered
// by their first junction.
func (g *ConnectionGraph) Components() [][]string {
	var groups [][]string
	for _, cc := range topo.ConnectedComponents(g.Graph) {
		group := make([]string, len(cc))
		for i, n := range cc {
			group[i] = g.Name(n.ID())
		}
		sort.Strings(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}
