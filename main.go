package main

import (
	"os"

	"github.com/spigell/interactive-resume/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
