package main

import (
	"os"

	"github.com/glacierdb/glacier/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
