package main

import (
	"os"

	"github.com/ardanlabs/ffi-bindgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
