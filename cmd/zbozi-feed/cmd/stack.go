package cmd

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/donaldgifford/shopify-zbozi-feed/internal/config"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/feed"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/notify"
	"github.com/donaldgifford/shopify-zbozi-feed/internal/shopify"
)

// feedStack is the wired feed pipeline shared by serve and build.
type feedStack struct {
	tokens  *shopify.ClientCredentialsProvider
	client  *shopify.Client
	builder *feed.Builder
	cache   *feed.Cache
}

func newFeedStack(cfg *config.Config, log *slog.Logger) *feedStack {
	sc := cfg.Shopify

	authOpts := []shopify.AuthOption{
		shopify.WithAuthHTTPClient(&http.Client{
			Timeout:   sc.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	}
	if sc.TokenURL != "" {
		authOpts = append(authOpts, shopify.WithTokenURL(sc.TokenURL))
	}
	tokens := shopify.NewClientCredentialsProvider(sc.Shop, sc.ClientID, sc.ClientSecret, authOpts...)

	endpoint := sc.GraphQLURL
	if endpoint == "" {
		endpoint = shopify.GraphQLURL(sc.Shop, sc.APIVersion)
	}

	clientOpts := []shopify.ClientOption{
		shopify.WithHTTPClient(&http.Client{
			Timeout:   sc.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
		shopify.WithMaxAttempts(sc.MaxAttempts),
		shopify.WithMarket(cfg.Feed.Country, cfg.Feed.Locale),
		shopify.WithImageLimit(imageLimit(&cfg.Feed)),
		shopify.WithLogger(log.With("component", "shopify")),
	}
	if sc.RateLimit.PerSecond > 0 {
		clientOpts = append(clientOpts, shopify.WithPacer(
			shopify.NewPacer(sc.RateLimit.PerSecond, sc.RateLimit.Burst),
		))
	}
	client := shopify.NewClient(tokens, endpoint, clientOpts...)

	builder := feed.NewBuilder(client, feedSettings(&cfg.Feed),
		feed.WithBuilderLogger(log.With("component", "feed")),
	)

	cache := feed.NewCache(builder,
		feed.WithTTL(cfg.Feed.CacheTTL),
		feed.WithNotifier(newNotifier(cfg, log)),
		feed.WithCacheLogger(log.With("component", "cache")),
	)

	return &feedStack{
		tokens:  tokens,
		client:  client,
		builder: builder,
		cache:   cache,
	}
}

func feedSettings(f *config.FeedConfig) feed.Settings {
	s := feed.Settings{
		PublicDomain:        f.PublicDomain,
		PageSize:            f.PageSize,
		DescriptionLimit:    f.DescriptionLimit,
		MissingPrice:        feed.MissingPricePolicy(f.MissingPrice),
		URLStyle:            feed.URLStyle(f.URLStyle),
		PreferPricedVariant: f.PreferPricedVariant,
	}
	if f.DeliveryDays != nil {
		s.DeliveryDays = *f.DeliveryDays
	}
	if f.MaxAlternateImages != nil {
		s.MaxAlternateImages = *f.MaxAlternateImages
	}
	return s
}

// imageLimit asks for one image more than the alternates cap so the
// featured image can be dropped from the alternates.
func imageLimit(f *config.FeedConfig) int {
	if f.MaxAlternateImages == nil {
		return shopify.DefaultImageLimit
	}
	return *f.MaxAlternateImages + 1
}

func newNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	d := cfg.Notifications.Discord
	if !d.Enabled {
		return notify.NewNoOpNotifier(log)
	}
	return notify.NewDiscordNotifier(d.WebhookURL, notify.WithShop(cfg.Shopify.Shop))
}
