package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/dashboards"
	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/rules"
	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/validate"
)

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "default", cfg: DefaultConfig()},
		{name: "empty output dir", cfg: Config{DashboardEnabled: true}, wantErr: true},
		{name: "nothing enabled", cfg: Config{OutputDir: "/tmp"}, wantErr: true},
		{name: "rules only", cfg: Config{OutputDir: "/tmp", RulesEnabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestBuildOverviewDashboard(t *testing.T) {
	t.Parallel()

	dash, err := dashboards.BuildOverview().Build()
	require.NoError(t, err)

	require.NotNil(t, dash.Uid)
	assert.Equal(t, dashboards.OverviewUID, *dash.Uid)
	require.NotNil(t, dash.Title)
	assert.Equal(t, "Zbozi Feed Overview", *dash.Title)

	require.NotNil(t, dash.Templating)
	require.Len(t, dash.Templating.List, 1)
	assert.Equal(t, "datasource", dash.Templating.List[0].Name)

	assert.Len(t, dash.Panels, 5)

	totalPanels := 0
	for _, p := range dash.Panels {
		if p.RowPanel != nil {
			totalPanels += len(p.RowPanel.Panels)
		}
	}
	assert.Equal(t, 17, totalPanels)
}

func TestDashboardExpressionsValid(t *testing.T) {
	t.Parallel()

	data, err := renderDashboard()
	require.NoError(t, err)

	exprs, err := validate.DashboardExprs(data)
	require.NoError(t, err)
	assert.NotEmpty(t, exprs)
	assert.NoError(t, validate.All(exprs, KnownMetrics))
}

func TestRuleExpressionsValid(t *testing.T) {
	t.Parallel()

	for name, cr := range rules.All() {
		assert.Equal(t, "monitoring.coreos.com/v1", cr.APIVersion, name)
		assert.Equal(t, "PrometheusRule", cr.Kind, name)
		assert.NoError(t, validate.All(rules.Expressions(cr), KnownMetrics), name)
	}
}

func TestRecordingRulesAreKnown(t *testing.T) {
	t.Parallel()

	for _, g := range rules.RecordingRules().Spec.Groups {
		for _, r := range g.Rules {
			assert.NotEmpty(t, r.Record)
			assert.True(t, KnownMetrics[r.Record], "recording rule %s missing from KnownMetrics", r.Record)
		}
	}
}

func TestAlertRulesHaveSeverity(t *testing.T) {
	t.Parallel()

	names := map[string]bool{}
	for _, g := range rules.AlertRules().Spec.Groups {
		for _, r := range g.Rules {
			assert.NotEmpty(t, r.Alert)
			assert.False(t, names[r.Alert], "duplicate alert %s", r.Alert)
			names[r.Alert] = true
			assert.Contains(t, []string{"critical", "warning", "info"}, r.Labels["severity"], r.Alert)
			assert.NotEmpty(t, r.Annotations["summary"], r.Alert)
		}
	}
	assert.True(t, names["ZfeedDown"])
	assert.True(t, names["ZfeedBuildFailing"])
}

func TestRunWritesArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}
	require.NoError(t, run(cfg, false))

	data, err := os.ReadFile(filepath.Join(dir, "grafana", dashboardFile))
	require.NoError(t, err)
	var model map[string]any
	require.NoError(t, json.Unmarshal(data, &model))
	assert.Equal(t, dashboards.OverviewUID, model["uid"])

	for name := range rules.All() {
		data, err := os.ReadFile(filepath.Join(dir, "prometheus", name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(string(data), generatedHeader), name)

		var cr rules.PrometheusRule
		require.NoError(t, yaml.Unmarshal(data, &cr), name)
		assert.NotEmpty(t, cr.Spec.Groups, name)
	}
}

func TestRunValidateOnlyWritesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := Config{OutputDir: dir, DashboardEnabled: true, RulesEnabled: true}
	require.NoError(t, run(cfg, true))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
