package main

import (
	"os"

	"github.com/davidbz/creditmeter/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
