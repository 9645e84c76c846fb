// Command uncertainty propagates measurement uncertainty through functions.
//
// Usage:
//
//	uncertainty eval -f 'x y' -v x=2±0.01 -v y=3+-0.02
//	uncertainty eval --file worksheet.yaml
//	uncertainty diff -f 'x^2 y' -w x
//	uncertainty serve
package main

import (
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
