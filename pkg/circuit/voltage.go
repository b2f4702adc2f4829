package circuit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/optimize"
)

// Stage is one independently biased circuit: the netlist, the nodes its
// sources drive and the nodes that sit on detector electrodes.
type Stage struct {
	Array       *Array
	Netlist     *Netlist
	SourceNodes []string
	Electrodes  []string
}

func sourceName(j int) string {
	return strconv.Itoa(j)
}

// FieldCageConfiguration is the mini TPC field cage divider. Version 1 has
// one TPC on the chain, version 2 two in parallel.
func FieldCageConfiguration(version int, pullDown float64, title string) (*Stage, error) {
	var cage float64
	switch version {
	case 1:
		cage = 7
	case 2:
		cage = 3.5
	default:
		return nil, fmt.Errorf("field cage version %d does not exist", version)
	}

	array := NewArray()
	for _, spec := range []struct {
		name  string
		value float64
	}{{"R0", cage}, {"R1", cage}, {"R2", 1}, {"R3", pullDown}} {
		c, err := NewComponent(spec.name, Resistor, spec.value, "M")
		if err != nil {
			return nil, err
		}
		array.Add(c)
	}
	comps := array.Components()
	if err := array.ConnectParallel(comps[0], comps[1]); err != nil {
		return nil, err
	}
	if err := array.ConnectSeries(comps[0], comps[2]); err != nil {
		return nil, err
	}
	if err := array.ConnectSeries(comps[2], comps[3]); err != nil {
		return nil, err
	}

	netlist, err := BuildNetlist(array, "JR3-2", title)
	if err != nil {
		return nil, err
	}
	return &Stage{
		Array:       array,
		Netlist:     netlist,
		SourceNodes: []string{"JR0-1", "JR2-2"},
		Electrodes:  []string{"JR0-1", "JR0-2"},
	}, nil
}

// GEMPlateConfiguration is one GEM face biased through a pull-down resistor.
func GEMPlateConfiguration(pullDown float64, title string) *Stage {
	n := NewNetlist(title)
	n.AddResistor("R1", "input", Ground, pullDown*1e6)
	return &Stage{
		Array: NewArray(&Component{
			Name:   "R1",
			Kind:   Resistor,
			Value:  pullDown,
			Prefix: "M",
			Unit:   "MΩ",
			Pre:    Junction{Name: "JR1-1", Links: []string{"JR1-2"}},
			Post:   Junction{Name: "JR1-2", Links: []string{"JR1-1"}},
		}),
		Netlist:     n,
		SourceNodes: []string{"input"},
		Electrodes:  []string{"input"},
	}
}

// DoubleMiniTPCDoubleTHGEM builds two TPCs in parallel read by two THGEMs.
// resistors are the four pull-down values in MΩ.
func DoubleMiniTPCDoubleTHGEM(resistors []float64) ([]*Stage, error) {
	if len(resistors) != 4 {
		return nil, fmt.Errorf("expected 4 pull-down resistors, got %d", len(resistors))
	}
	titles := []string{"Filed Cage and THGEM1 top", "THGEM1 bottom", "THGEM2 top", "THGEM2 bottom"}
	stages := make([]*Stage, len(resistors))
	for i, r := range resistors {
		if i == 0 {
			s, err := FieldCageConfiguration(2, r, titles[i])
			if err != nil {
				return nil, err
			}
			stages[i] = s
			continue
		}
		stages[i] = GEMPlateConfiguration(r, titles[i])
	}
	return stages, nil
}

// Space is the gap in cm after an electrode.
type Space struct {
	Label string
	Width float64
}

func DefaultSpaces() []Space {
	return []Space{
		{"drift", 2.8},
		{"gem1", 0.04},
		{"transfer", 0.2},
		{"gem2", 0.04},
		{"induction", 0.2},
	}
}

func isGEM(label string) bool {
	return strings.Contains(label, "gem")
}

// Condition is a GEM voltage in V or a reduced field in kV/cm/atm.
type Condition struct {
	Label string
	Value float64
}

func (c Condition) String() string {
	if isGEM(c.Label) {
		return fmt.Sprintf("%-2s_%-10s = %8.3f [%s]", "dV", c.Label, c.Value, "V")
	}
	return fmt.Sprintf("%-2s_%-10s = %8.3f [%s]", "E", c.Label, c.Value, "kV/cm/atm")
}

// SourceReading is a simulated source: voltage in V and current in µA.
type SourceReading struct {
	Stage   int
	Node    string
	Voltage float64
	Current float64
}

func (r SourceReading) String() string {
	return fmt.Sprintf("V = %8.2f [V], I = %7.3f [uA]", r.Voltage, r.Current)
}

type VoltageSetting struct {
	Stages   []*Stage
	Spaces   []Space
	Pressure float64
	Engine   Engine

	conditions []float64
	analyses   []*Analysis
	electrodes []float64
}

func NewVoltageSetting(stages []*Stage, spaces []Space, pressure float64, engine Engine) *VoltageSetting {
	return &VoltageSetting{
		Stages:     stages,
		Spaces:     spaces,
		Pressure:   pressure,
		Engine:     engine,
		conditions: make([]float64, len(spaces)),
	}
}

func (v *VoltageSetting) SetCondition(values []float64) error {
	if len(values) != len(v.Spaces) {
		return fmt.Errorf("got %d conditions for %d spaces", len(values), len(v.Spaces))
	}
	copy(v.conditions, values)
	return nil
}

func (v *VoltageSetting) Conditions() []Condition {
	out := make([]Condition, len(v.Spaces))
	for i, s := range v.Spaces {
		out[i] = Condition{Label: s.Label, Value: v.conditions[i]}
	}
	return out
}

// SourcesFromList splits a flat list of source voltages over the stages in
// order.
func SourcesFromList(stages []*Stage, values []float64) ([][]float64, error) {
	out := make([][]float64, len(stages))
	k := 0
	for i, s := range stages {
		for range s.SourceNodes {
			if k >= len(values) {
				return nil, fmt.Errorf("got %d voltages, the stages need more", len(values))
			}
			out[i] = append(out[i], values[k])
			k++
		}
	}
	if k != len(values) {
		return nil, fmt.Errorf("got %d voltages for %d sources", len(values), k)
	}
	return out, nil
}

func setSource(n *Netlist, j int, node string, volts float64) {
	if err := n.SetSourceValue(sourceName(j), volts); err != nil {
		n.AddVoltageSource(sourceName(j), node, volts)
	}
}

// SetVoltages places the source values on every stage. On the first stage
// each later source is checked against the voltage the first source alone
// already pulls its node to.
func (v *VoltageSetting) SetVoltages(ctx context.Context, sources [][]float64) error {
	if len(sources) != len(v.Stages) {
		return fmt.Errorf("got voltages for %d stages, have %d", len(sources), len(v.Stages))
	}
	for i, stage := range v.Stages {
		if len(sources[i]) != len(stage.SourceNodes) {
			return fmt.Errorf("stage %d needs %d voltages, got %d", i, len(stage.SourceNodes), len(sources[i]))
		}
		for j, volts := range sources[i] {
			setSource(stage.Netlist, j, stage.SourceNodes[j], volts)
		}
	}

	first := v.Stages[0]
	if len(first.SourceNodes) < 2 {
		return nil
	}
	ref := first.Netlist.Clone()
	ref.Elements = ref.Elements[:0]
	for _, e := range first.Netlist.Elements {
		if e.Type != "V" || e.Name == sourceName(0) {
			ref.Elements = append(ref.Elements, e)
		}
	}
	a, err := v.Engine.OperatingPoint(ctx, ref)
	if err != nil {
		return err
	}
	for j := 1; j < len(first.SourceNodes); j++ {
		floor, ok := a.Node(first.SourceNodes[j])
		if ok && math.Abs(floor) > math.Abs(sources[0][j]) {
			logger.Error(fmt.Sprintf("set voltage %d @ stage 0 is lower than minimum voltage (%.2f V)", j, floor))
		}
	}
	return nil
}

func (v *VoltageSetting) SimulateAllStages(ctx context.Context) error {
	v.analyses = make([]*Analysis, len(v.Stages))
	for i, stage := range v.Stages {
		a, err := v.Engine.OperatingPoint(ctx, stage.Netlist)
		if err != nil {
			return fmt.Errorf("stage %d: %w", i, err)
		}
		NodeVoltages(a)
		SourceCurrents(a)
		v.analyses[i] = a
	}
	return nil
}

// SourceVoltageCurrent reads back every source and records the electrode
// voltages used by CalculateFieldStrength.
func (v *VoltageSetting) SourceVoltageCurrent() ([]SourceReading, error) {
	if len(v.analyses) != len(v.Stages) {
		return nil, errors.New("stages have not been simulated")
	}
	var readings []SourceReading
	v.electrodes = v.electrodes[:0]
	for i, stage := range v.Stages {
		a := v.analyses[i]
		for j, node := range stage.SourceNodes {
			volts, ok := a.Node(node)
			if !ok {
				return nil, fmt.Errorf("stage %d: node %s missing from the analysis", i, node)
			}
			current, _ := a.Branch("v" + sourceName(j))
			readings = append(readings, SourceReading{Stage: i, Node: node, Voltage: volts, Current: current * 1e6})
		}
		for _, node := range stage.Electrodes {
			volts, ok := a.Node(node)
			if !ok {
				return nil, fmt.Errorf("stage %d: electrode %s missing from the analysis", i, node)
			}
			v.electrodes = append(v.electrodes, volts)
		}
	}
	return readings, nil
}

// CalculateFieldStrength turns the electrode voltages into the conditions
// of each space. The last electrode is referenced to ground.
func (v *VoltageSetting) CalculateFieldStrength() error {
	if len(v.electrodes) != len(v.Spaces) {
		return fmt.Errorf("have %d electrode voltages for %d spaces", len(v.electrodes), len(v.Spaces))
	}
	for i, s := range v.Spaces {
		next := 0.0
		if i < len(v.electrodes)-1 {
			next = v.electrodes[i+1]
		}
		dv := v.electrodes[i] - next
		if isGEM(s.Label) {
			v.conditions[i] = math.Abs(dv)
		} else {
			v.conditions[i] = dv / s.Width / v.Pressure / 1e3
		}
	}
	return nil
}

// EstimateTrialInputVoltage integrates the conditions from the last space
// back to the cathode. Entry k is the voltage of the electrode before the
// k-th space counted from the end.
func (v *VoltageSetting) EstimateTrialInputVoltage() []float64 {
	n := len(v.Spaces)
	trial := make([]float64, 0, n)
	voltage := 0.0
	for i := n - 1; i >= 0; i-- {
		factor := 1e3 * v.Spaces[i].Width * v.Pressure
		if isGEM(v.Spaces[i].Label) {
			factor = -1
		}
		voltage += v.conditions[i] * factor
		trial = append(trial, voltage)
	}
	return trial
}

func (v *VoltageSetting) firstStageElectrodes(ctx context.Context, x []float64) (float64, float64, error) {
	stage := v.Stages[0]
	n := stage.Netlist.Clone()
	for j := range x {
		setSource(n, j, stage.SourceNodes[j], x[j])
	}
	a, err := v.Engine.OperatingPoint(ctx, n)
	if err != nil {
		return 0, 0, err
	}
	cathode, ok1 := a.Node(stage.Electrodes[0])
	gem, ok2 := a.Node(stage.Electrodes[1])
	if !ok1 || !ok2 {
		return 0, 0, errors.New("first stage electrodes missing from the analysis")
	}
	return cathode, gem, nil
}

// SearchFirstStageVoltages finds the two first stage source values that put
// the cathode and the first GEM top at their trial voltages. The sources of
// the first stage are updated with the result.
func (v *VoltageSetting) SearchFirstStageVoltages(ctx context.Context) ([2]float64, error) {
	var out [2]float64
	stage := v.Stages[0]
	if len(stage.SourceNodes) != 2 || len(stage.Electrodes) < 2 {
		return out, errors.New("first stage needs two sources and two electrodes")
	}
	trial := v.EstimateTrialInputVoltage()
	if len(trial) < 2 {
		return out, errors.New("need at least two spaces")
	}
	target := [2]float64{trial[len(trial)-1], trial[len(trial)-2]}

	var simErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if simErr != nil {
				return math.Inf(1)
			}
			c, g, err := v.firstStageElectrodes(ctx, x)
			if err != nil {
				simErr = err
				return math.Inf(1)
			}
			return (c-target[0])*(c-target[0]) + (g-target[1])*(g-target[1])
		},
	}
	result, err := optimize.Minimize(problem, target[:], nil, &optimize.NelderMead{})
	if simErr != nil {
		return out, simErr
	}
	if err != nil {
		return out, fmt.Errorf("voltage search failed: %w", err)
	}
	copy(out[:], result.X)
	for j := range out {
		setSource(stage.Netlist, j, stage.SourceNodes[j], out[j])
	}
	logger.Info(fmt.Sprintf("optimized values: %.2f %.2f", out[0], out[1]), "circuit")
	return out, nil
}
