package main

import (
	"os"

	"github.com/Smailkiller/FOXFOCUS/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
