// Package main is the entry point for the feedctl CLI client.
package main

import (
	"github.com/donaldgifford/shopify-zbozi-feed/cmd/feedctl/cmd"
)

func main() {
	cmd.Execute()
}
