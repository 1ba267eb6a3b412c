package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func requestContext(c *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), viper.GetDuration("timeout"))
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the feed cache state",
		Example: `  feedctl status
  feedctl status --output json`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			s, err := newClient().FeedStatus(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(c.OutOrStdout(), s)
			}
			return printFeedStatus(c.OutOrStdout(), s)
		},
	}
}

func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Rebuild the feed now",
		Long: "Refresh asks the server to rebuild the feed from Shopify regardless of\n" +
			"the cache age and waits for the build. A failed build keeps the old feed.",
		Example: `  feedctl refresh
  feedctl refresh --timeout 10m`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			s, err := newClient().RefreshFeed(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(c.OutOrStdout(), s)
			}
			return printFeedStatus(c.OutOrStdout(), s)
		},
	}
}

func fetchCmd() *cobra.Command {
	var (
		output string
		path   string
	)

	c := &cobra.Command{
		Use:   "fetch",
		Short: "Download the feed XML",
		Example: `  feedctl fetch > feed.xml
  feedctl fetch --path /feed-cz.xml -o feed-cz.xml`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			body, err := newClient().FetchFeed(ctx, path)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = c.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil { //nolint:gosec // feed is public
				return fmt.Errorf("writing %s: %w", output, err)
			}
			fmt.Fprintf(c.ErrOrStderr(), "Wrote %d bytes to %s\n", len(body), output)
			return nil
		},
	}

	c.Flags().StringVarP(&output, "out", "o", "", "write to this file instead of stdout")
	c.Flags().StringVar(&path, "path", "/feed.xml", "feed path on the server")

	return c
}

func throttleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "throttle",
		Short: "Show the last Shopify throttle status",
		Example: `  feedctl throttle
  feedctl throttle --output json`,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			t, err := newClient().Throttle(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(c.OutOrStdout(), t)
			}
			return printThrottle(c.OutOrStdout(), t)
		},
	}
}

func readyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready",
		Short: "Check that the server can reach Shopify",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, cancel := requestContext(c)
			defer cancel()

			ready, err := newClient().Ready(ctx)
			if err != nil {
				return err
			}
			if !ready {
				return fmt.Errorf("server at %s is not ready", viper.GetString("server"))
			}
			fmt.Fprintln(c.OutOrStdout(), "ready")
			return nil
		},
	}
}
