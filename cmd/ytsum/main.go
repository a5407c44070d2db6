// Command ytsum fetches YouTube transcripts and summarizes them from the
// command line, sharing configuration and pipeline with the MCP server.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
