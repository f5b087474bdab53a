// Package main provides the entrypoint for iv-proxy.
package main

import (
	"os"

	"github.com/SirCryptic/iv-proxy/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
