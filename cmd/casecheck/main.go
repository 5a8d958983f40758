package main

import (
	"os"

	"github.com/casecheck/casecheck/cmd/casecheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
