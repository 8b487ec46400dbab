package main

import (
	"fmt"
	"os"

	"github.com/promptshield/promptshield/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "promptshield: %v\n", err)
		os.Exit(1)
	}
}
