package main

import (
	"os"

	"github.com/openclub/clubgate/cmd/clubgate/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
