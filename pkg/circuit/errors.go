package circuit

import "fmt"

// ErrUnsupportedUnit is returned for a unit prefix SPICE values cannot use.
type ErrUnsupportedUnit struct {
	Prefix string
}

func (e *ErrUnsupportedUnit) Error() string {
	return fmt.Sprintf("unsupported unit prefix: %q", e.Prefix)
}

// ErrSimulation represents a failed ngspice run.
type ErrSimulation struct {
	Title  string
	Output string
	Err    error
}

func (e *ErrSimulation) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("simulation of %q failed: %v: %s", e.Title, e.Err, e.Output)
	}
	return fmt.Sprintf("simulation of %q failed: %v", e.Title, e.Err)
}

func (e *ErrSimulation) Unwrap() error { return e.Err }
