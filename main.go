// The main package for the gridtracker executable.
package main

import (
	"github.com/artistgrid/gridtracker/cmd"
)

// main defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
