// Command friendgraph serves the friend graph over HTTP and manages it from
// the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
