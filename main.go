package main

import (
	"fmt"
	"os"

	"github.com/nsavage/relocore/cmd"
)

// VERSION will be set by the linker during build
var VERSION = "dev"

func main() {
	cmd.SetApplicationVersion(VERSION)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
