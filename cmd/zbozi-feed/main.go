// Package main is the entry point for the zbozi-feed server.
package main

import (
	"os"

	"github.com/donaldgifford/shopify-zbozi-feed/cmd/zbozi-feed/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
