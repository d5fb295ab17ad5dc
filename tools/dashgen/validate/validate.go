// Package validate checks PromQL expressions in generated dashboards and
// rule files: every expression must parse, and every metric it selects
// should be one sidekick exports or records.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/zhuliguang/Sidekick/tools/dashgen/rules"
)

// histogramSuffixes resolve histogram series to their metric name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings. Errors are unparseable expressions;
// warnings are references to metrics outside the known set.
type Result struct {
	Errors   []error
	Warnings []string
}

// Ok reports whether no errors were found.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Merge appends the findings of other.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Exprs validates each expression against known. The label names the source
// in messages.
func Exprs(label string, exprs []string, known map[string]bool) Result {
	var res Result
	for _, expr := range exprs {
		parsed, err := parser.ParseExpr(expr)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("%s: %q: %w", label, expr, err))
			continue
		}
		for _, name := range metricNames(parsed) {
			if !known[baseName(name, known)] {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s: unknown metric %q in %q", label, name, expr))
			}
		}
	}
	return res
}

// Dashboard validates every "expr" field found in the encoded dashboard.
func Dashboard(dash any, known map[string]bool) Result {
	data, err := json.Marshal(dash)
	if err != nil {
		return Result{Errors: []error{fmt.Errorf("encoding dashboard: %w", err)}}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{Errors: []error{fmt.Errorf("decoding dashboard: %w", err)}}
	}

	var exprs []string
	collectExprs(doc, &exprs)
	return Exprs("dashboard", exprs, known)
}

// Rules validates the expressions of every rule in cr. A rule must name
// exactly one of a recorded series or an alert.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		for i, r := range g.Rules {
			label := cr.Metadata.Name + "/" + g.Name + "/" + r.Name()
			if r.Name() == "" {
				res.Errors = append(res.Errors,
					fmt.Errorf("%s/%s: rule %d must set exactly one of record or alert", cr.Metadata.Name, g.Name, i))
				continue
			}
			res.Merge(Exprs(label, []string{r.Expr}, known))
		}
	}
	return res
}

func collectExprs(v any, out *[]string) {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s, ok := t[k].(string); ok && k == "expr" {
				*out = append(*out, s)
				continue
			}
			collectExprs(t[k], out)
		}
	case []any:
		for _, e := range t {
			collectExprs(e, out)
		}
	}
}

func metricNames(expr parser.Expr) []string {
	var names []string
	parser.Inspect(expr, func(node parser.Node, _ []parser.Node) error {
		if vs, ok := node.(*parser.VectorSelector); ok && vs.Name != "" {
			names = append(names, vs.Name)
		}
		return nil
	})
	return names
}

func baseName(name string, known map[string]bool) string {
	if known[name] {
		return name
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok {
			return base
		}
	}
	return name
}
