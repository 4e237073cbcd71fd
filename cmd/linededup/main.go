// Command linededup removes blank and duplicate lines from a text file
// locally, using the same ingestion rules as the server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "linededup:", err)
		os.Exit(1)
	}
}
