package main

import (
	"os"

	"github.com/optionscout/backend/cmd/scout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
