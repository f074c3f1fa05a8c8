// The main package for the ffa-scraper executable.
package main

import "github.com/athledata/ffa-scraper/cmd"

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
