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
// If not set, running mage will list available targets
var Default = Build

// Build compiles both executables into ./bin
func Build() error {
	mg.Deps(BuildFrontend)
	mg.Deps(BuildProduction)
	fmt.Println("Compilation finished")
	return nil
}

func BuildFrontend() error {
	fmt.Println("Building frontend executable...")
	return goCommand("build", "-o", "./bin/frontend", "./frontend")
}

func BuildProduction() error {
	fmt.Println("Building production executable...")
	return goCommand("build", "-o", "./bin/production", "./production")
}

// Test runs the library tests. HDF5 headers and libraries are taken from
// CGO_CFLAGS and CGO_LDFLAGS.
func Test() error {
	fmt.Println("Running tests...")
	return goCommand("test", "./pkg/...")
}

func goCommand(args ...string) error {
	ldflags := os.Getenv("CGO_LDFLAGS")
	cflags := os.Getenv("CGO_CFLAGS")
	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(),
		"CGO_ENABLED=1",
		fmt.Sprintf("CGO_LDFLAGS=%s", ldflags),
		fmt.Sprintf("CGO_CFLAGS=%s", cflags))
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
