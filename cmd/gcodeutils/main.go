package main

import (
	"os"

	"github.com/TigerGRBL/gcodeutils/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
