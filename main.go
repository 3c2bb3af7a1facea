package main

import (
	"os"

	"github.com/qualbot/qualbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
