// Package main generates CLI reference documentation for zbozi-feed and
// feedctl.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	feedctl "github.com/donaldgifford/shopify-zbozi-feed/cmd/feedctl/cmd"
	server "github.com/donaldgifford/shopify-zbozi-feed/cmd/zbozi-feed/cmd"
)

func main() {
	output := flag.String("output", "docs/cli", "output directory for generated markdown")
	flag.Parse()

	if err := generate(*output, server.Root(), feedctl.Root()); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("CLI docs generated in %s/\n", *output)
}

// generate writes one markdown tree per root command, each in a directory
// named after the command.
func generate(dir string, roots ...*cobra.Command) error {
	for _, root := range roots {
		out := filepath.Join(dir, root.Name())
		if err := os.MkdirAll(out, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		root.DisableAutoGenTag = true
		if err := doc.GenMarkdownTree(root, out); err != nil {
			return fmt.Errorf("generating docs for %s: %w", root.Name(), err)
		}
	}
	return nil
}
