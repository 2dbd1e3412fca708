package main

import (
	"os"

	"github.com/wonny/argus/cmd/argus/commands"
)

// main is the entry point for the Argus CLI
// ⭐ unified CLI entry point: go run ./cmd/argus [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
