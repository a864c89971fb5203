package main

import (
	"os"

	"github.com/paywall-split/paywall-split/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
