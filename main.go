// The main package for the policycrawler executable.
package main

import (
	"github.com/mnr-tools/policy-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
