//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
)

// Default target to run when none is specified
var Default = Build

// Build compiles every command into ./bin.
func Build() error {
	mg.Deps(BuildViewers, BuildSimulation, BuildAnalysis, BuildTools)
	fmt.Println("Compilation finished")
	return nil
}

func BuildViewers() error {
	return buildAll("catmview", "padview", "checktrialpad")
}

// BuildSimulation needs the HDF5 C library for simtrack.
func BuildSimulation() error {
	return buildAll("simtrack", "setvoltage")
}

func BuildAnalysis() error {
	return buildAll("mcagain")
}

func BuildTools() error {
	return buildAll("filecheck", "generategif")
}

// Test runs the unit tests, including the HDF5 writer.
func Test() error {
	cmd := exec.Command("go", "test", "-tags", "hdf5", "./...")
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Clean removes ./bin.
func Clean() error {
	return os.RemoveAll("bin")
}

func cgoEnv() []string {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	return append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
}

func buildAll(names ...string) error {
	for _, name := range names {
		if err := build(name); err != nil {
			return err
		}
	}
	return nil
}

func build(name string) error {
	fmt.Printf("Building %s executable...\n", name)
	cmd := exec.Command("go", "build", "-o", "./bin/"+name, "./"+name)
	cmd.Env = cgoEnv()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
