// The main package for the phishfeatures executable.
package main

import (
	"github.com/zoror2/Final-repo-Bhargav-Phishin-project/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
