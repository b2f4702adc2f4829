package circuit

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
)

// Analysis holds an operating point: node voltages in V and source branch
// currents in A, keyed by lower case names.
type Analysis struct {
	Nodes    map[string]float64
	Branches map[string]float64
}

// Node returns the voltage at a node, ignoring case. Ground is 0.
func (a *Analysis) Node(name string) (float64, bool) {
	if name == Ground {
		return 0, true
	}
	v, ok := a.Nodes[strings.ToLower(name)]
	return v, ok
}

// Branch returns the current through a source card such as "V0".
func (a *Analysis) Branch(card string) (float64, bool) {
	v, ok := a.Branches[strings.ToLower(card)]
	return v, ok
}

// Engine runs a DC operating point analysis.
type Engine interface {
	OperatingPoint(ctx context.Context, n *Netlist) (*Analysis, error)
}

// Ngspice runs the ngspice binary in batch mode, one process per call.
type Ngspice struct {
	Binary string
}

func (e *Ngspice) OperatingPoint(ctx context.Context, n *Netlist) (*Analysis, error) {
	binary := e.Binary
	if binary == "" {
		binary = "ngspice"
	}

	deck, err := os.CreateTemp("", "catm-*.cir")
	if err != nil {
		return nil, &ErrSimulation{Title: n.Title, Err: err}
	}
	defer os.Remove(deck.Name())
	if _, err := deck.WriteString(n.String()); err != nil {
		deck.Close()
		return nil, &ErrSimulation{Title: n.Title, Err: err}
	}
	if err := deck.Close(); err != nil {
		return nil, &ErrSimulation{Title: n.Title, Err: err}
	}

	cmd := exec.CommandContext(ctx, binary, "-b", deck.Name())
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ErrSimulation{Title: n.Title, Output: strings.TrimSpace(string(exitErr.Stderr)), Err: err}
		}
		return nil, &ErrSimulation{Title: n.Title, Err: err}
	}

	a, err := ParseOperatingPoint(bytes.NewReader(out))
	if err != nil {
		return nil, &ErrSimulation{Title: n.Title, Err: err}
	}
	return a, nil
}

// ParseOperatingPoint reads the node voltage and source current tables of an
// ngspice batch run. Lines of the form "name value" or "name = value" are
// taken; names ending in "#branch" are source currents.
func ParseOperatingPoint(r io.Reader) (*Analysis, error) {
	a := &Analysis{Nodes: make(map[string]float64), Branches: make(map[string]float64)}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(strings.ReplaceAll(scanner.Text(), "=", " "))
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		name := strings.ToLower(fields[0])
		if strings.HasPrefix(name, "v(") && strings.HasSuffix(name, ")") {
			name = name[2 : len(name)-1]
		}
		if branch, ok := strings.CutSuffix(name, "#branch"); ok {
			a.Branches[branch] = v
			continue
		}
		a.Nodes[name] = v
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(a.Nodes) == 0 {
		return nil, errors.New("no node voltages in simulator output")
	}
	return a, nil
}

type Reading struct {
	Name  string
	Value float64
}

func sortedReadings(m map[string]float64) []Reading {
	out := make([]Reading, 0, len(m))
	for k, v := range m {
		out = append(out, Reading{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// NodeVoltages lists the node voltages sorted by name.
func NodeVoltages(a *Analysis) []Reading {
	out := sortedReadings(a.Nodes)
	for _, r := range out {
		logger.Info(fmt.Sprintf("Voltage at %s: %.2f V", r.Name, r.Value), "circuit")
	}
	return out
}

// SourceCurrents lists the source branch currents in A sorted by name.
func SourceCurrents(a *Analysis) []Reading {
	out := sortedReadings(a.Branches)
	for _, r := range out {
		logger.Info(fmt.Sprintf("Current through %s: %.3f mA", r.Name, r.Value*1e3), "circuit")
	}
	return out
}
