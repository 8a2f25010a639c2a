// ABOUTME: Entry point for the crawler CLI
// ABOUTME: Runs one-shot, ranged and watch-mode crawls without the admin API

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
