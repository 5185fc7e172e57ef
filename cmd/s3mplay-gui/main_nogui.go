//go:build !gui

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "s3mplay-gui was built without the gui tag; rebuild with: go build -tags gui ./cmd/s3mplay-gui")
	os.Exit(1)
}
