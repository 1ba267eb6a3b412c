package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/dashboards"
	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/rules"
	"github.com/donaldgifford/shopify-zbozi-feed/tools/dashgen/validate"
)

const generatedHeader = "# Code generated by dashgen. DO NOT EDIT.\n"

const dashboardFile = "zbozi-feed-overview.json"

func main() {
	validateOnly := flag.Bool("validate", false, "validate generated artifacts without writing files")
	outputDir := flag.String("output", "", "override output directory")
	flag.Parse()

	cfg := DefaultConfig()
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *validateOnly); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// artifact is one generated file relative to the output directory.
type artifact struct {
	path string
	data []byte
}

func run(cfg Config, validateOnly bool) error {
	arts, err := generate(cfg)
	if err != nil {
		return err
	}

	if validateOnly {
		fmt.Printf("validation passed (%d artifacts)\n", len(arts))
		return nil
	}

	for _, a := range arts {
		dst := filepath.Join(cfg.OutputDir, a.path)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, a.data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", dst, err)
		}
		fmt.Printf("dashgen: wrote %s\n", dst)
	}
	return nil
}

// generate builds and validates every enabled artifact.
func generate(cfg Config) ([]artifact, error) {
	var arts []artifact

	if cfg.DashboardEnabled {
		data, err := renderDashboard()
		if err != nil {
			return nil, err
		}
		exprs, err := validate.DashboardExprs(data)
		if err != nil {
			return nil, err
		}
		if err := validate.All(exprs, KnownMetrics); err != nil {
			return nil, fmt.Errorf("dashboard: %w", err)
		}
		arts = append(arts, artifact{path: filepath.Join("grafana", dashboardFile), data: data})
	}

	if cfg.RulesEnabled {
		all := rules.All()
		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			cr := all[name]
			if err := validate.All(rules.Expressions(cr), KnownMetrics); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			data, err := renderRules(cr)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			arts = append(arts, artifact{path: filepath.Join("prometheus", name), data: data})
		}
	}

	return arts, nil
}

func renderDashboard() ([]byte, error) {
	d, err := dashboards.BuildOverview().Build()
	if err != nil {
		return nil, fmt.Errorf("building dashboard: %w", err)
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding dashboard: %w", err)
	}
	return append(data, '\n'), nil
}

func renderRules(cr rules.PrometheusRule) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(generatedHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cr); err != nil {
		return nil, fmt.Errorf("encoding rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("flushing rules: %w", err)
	}
	return buf.Bytes(), nil
}
