package main

import (
	"os"

	"github.com/marvmedia/grantfinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
