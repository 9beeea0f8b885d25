package main

import (
	"os"

	"github.com/riskpair/riskpair/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
