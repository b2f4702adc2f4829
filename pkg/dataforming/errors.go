package dataforming

import (
	"fmt"

	"github.com/fendo/catmlib/pkg/logging"
)

var logger logging.Logger = logging.Discard()

func SetLogger(l logging.Logger) {
	logger = l
}

// ErrOpenFile represents an error when opening an input file.
type ErrOpenFile struct {
	Filename string
	Err      error
}

func (e *ErrOpenFile) Error() string {
	return fmt.Sprintf("error opening file %q: %v", e.Filename, e.Err)
}

func (e *ErrOpenFile) Unwrap() error {
	return e.Err
}

// ErrNoDataSection is returned for SPE files without a $DATA: block.
type ErrNoDataSection struct {
	Filename string
}

func (e *ErrNoDataSection) Error() string {
	return fmt.Sprintf("no $DATA: section in %q", e.Filename)
}
