package main

import (
	"os"

	"github.com/RestinGreen/polygon-forwarder/cmd/main/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
