package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/config"
	"github.com/donaldgifford/shopify-zbozi-feed/pkg/logger"
)

func buildCommand() *cobra.Command {
	var output string

	c := &cobra.Command{
		Use:   "build",
		Short: "Build the feed once and write the XML",
		Long: "Build runs the same pipeline as the server once, without the cache, " +
			"and writes the document to stdout or to --output.",
		Example: `  zbozi-feed build > feed.xml
  zbozi-feed build --output /srv/www/feed.xml`,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			doc, err := newFeedStack(cfg, log).builder.Render(ctx)
			if err != nil {
				return err
			}

			if output == "" {
				_, err = c.OutOrStdout().Write(doc.Body)
				return err
			}
			if err := os.WriteFile(output, doc.Body, 0o644); err != nil { //nolint:gosec // feed is public
				return fmt.Errorf("writing feed: %w", err)
			}
			log.Info("feed written", "path", output, "items", doc.Items, "bytes", len(doc.Body))
			return nil
		},
	}

	c.Flags().StringVarP(&output, "output", "o", "", "write the feed to this file instead of stdout")

	return c
}
