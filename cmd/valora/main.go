package main

import (
	"os"

	"github.com/dmoralesf/valora/cmd/valora/commands"
)

// main is the entry point for the valora CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
