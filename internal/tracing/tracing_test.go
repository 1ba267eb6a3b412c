package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()

	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestResource(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		cfg         Config
		wantVersion string
		hasVersion  bool
	}{
		{
			name:        "name and version",
			cfg:         Config{ServiceName: "zbozi-feed", ServiceVersion: "1.2.3"},
			wantVersion: "1.2.3",
			hasVersion:  true,
		},
		{
			name: "name only",
			cfg:  Config{ServiceName: "zbozi-feed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Resource(tt.cfg)

			name, ok := res.Set().Value(attribute.Key("service.name"))
			require.True(t, ok)
			assert.Equal(t, "zbozi-feed", name.AsString())

			version, ok := res.Set().Value(attribute.Key("service.version"))
			assert.Equal(t, tt.hasVersion, ok)
			assert.Equal(t, tt.wantVersion, version.AsString())
		})
	}
}

func TestUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "zbozi-feed", userAgent(Config{ServiceName: "zbozi-feed"}))
	assert.Equal(t, "zbozi-feed/dev", userAgent(Config{ServiceName: "zbozi-feed", ServiceVersion: "dev"}))
	assert.Len(t, traceOptions(Config{Endpoint: "localhost:4317", Insecure: true}), 3)
	assert.Len(t, metricOptions(Config{Endpoint: "localhost:4317"}), 2)
}
