// Package validate checks generated PromQL against the metrics zbozi-feed
// actually exports.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"
)

// histogramSuffixes are the series a histogram exposes besides its name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Expr parses expr and returns an error when it is not valid PromQL or
// references a metric missing from known.
func Expr(expr string, known map[string]bool) error {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", expr, err)
	}

	var unknown []string
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !Known(vs.Name, known) {
			unknown = append(unknown, vs.Name)
		}
		return nil
	})
	if len(unknown) > 0 {
		return fmt.Errorf("%q references unknown metrics: %s", expr, strings.Join(unknown, ", "))
	}
	return nil
}

// Known reports whether name, or the histogram it belongs to, is in known.
func Known(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, s := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, s); ok && known[base] {
			return true
		}
	}
	return false
}

// All validates every expression and joins the failures.
func All(exprs []string, known map[string]bool) error {
	var errs []error
	for _, e := range exprs {
		if err := Expr(e, known); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type panelJSON struct {
	Targets []struct {
		Expr string `json:"expr"`
	} `json:"targets"`
	Panels []panelJSON `json:"panels"`
}

// DashboardExprs extracts every target expression from a dashboard JSON
// model, including panels nested in rows.
func DashboardExprs(data []byte) ([]string, error) {
	var d panelJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding dashboard: %w", err)
	}
	var out []string
	var walk func(p panelJSON)
	walk = func(p panelJSON) {
		for _, t := range p.Targets {
			if t.Expr != "" {
				out = append(out, t.Expr)
			}
		}
		for _, c := range p.Panels {
			walk(c)
		}
	}
	walk(d)
	return out, nil
}
