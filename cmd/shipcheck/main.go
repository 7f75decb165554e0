// Package main provides the entry point for the shipcheck CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/shipcheck/cmd/shipcheck/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
