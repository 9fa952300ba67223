package forms

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/pdfmarkup/annotation"
	"github.com/wudi/pdfmarkup/observability"
	"github.com/wudi/pdfmarkup/scripting"
)

var (
	namedCall  = regexp.MustCompile(`^\s*(sum|multiply|add|subtract|divide)\s*\(([^()]*)\)\s*;?\s*$`)
	arithmetic = regexp.MustCompile(`^[\d\s+\-*/().]+$`)
)

// Option configures a Calculator.
type Option func(*Calculator)

// WithEngine sets the engine that evaluates bare arithmetic.
func WithEngine(e scripting.Engine) Option {
	return func(c *Calculator) { c.engine = e }
}

// WithLogger sets the logger used for rejected scripts.
func WithLogger(l observability.Logger) Option {
	return func(c *Calculator) { c.logger = l }
}

// Calculator evaluates field calculation scripts.
type Calculator struct {
	engine scripting.Engine
	logger observability.Logger
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{logger: observability.NopLogger{}}
	for _, o := range opts {
		o(c)
	}
	if c.engine == nil {
		c.engine = scripting.NewEngine()
	}
	return c
}

// Calculate returns a copy of values, keyed by field name, with every
// calculated field recomputed. Scripts are re-run until no value
// changes so chained totals settle. A script that cannot be evaluated
// yields "0".
func (c *Calculator) Calculate(ctx context.Context, fields []annotation.FormField, values map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	var calculated []annotation.FormField
	for _, f := range fields {
		if strings.TrimSpace(f.CalculationScript) != "" {
			calculated = append(calculated, f)
		}
	}
	if len(calculated) == 0 {
		return out, nil
	}
	names := fieldNames(fields)
	for pass := 0; pass <= len(calculated); pass++ {
		changed := false
		for _, f := range calculated {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			v := c.evaluate(ctx, f.CalculationScript, names, out)
			if out[f.Name] != v {
				out[f.Name] = v
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return out, nil
}

// Calculate evaluates with a default Calculator.
func Calculate(ctx context.Context, fields []annotation.FormField, values map[string]string) (map[string]string, error) {
	return NewCalculator().Calculate(ctx, fields, values)
}

func (c *Calculator) evaluate(ctx context.Context, script string, names []string, values map[string]string) string {
	if m := namedCall.FindStringSubmatch(script); m != nil {
		v, ok := apply(m[1], arguments(m[2], values))
		if !ok {
			return "0"
		}
		return format(v)
	}

	expr := script
	for _, name := range names {
		if name == "" || !strings.Contains(expr, name) {
			continue
		}
		expr = strings.ReplaceAll(expr, name, "("+format(numeric(values[name]))+")")
	}
	expr = strings.TrimSuffix(strings.TrimSpace(expr), ";")
	if !arithmetic.MatchString(expr) {
		c.logger.Debug("calculation script rejected", observability.String("script", script))
		return "0"
	}
	v, err := c.engine.EvalNumber(ctx, expr)
	if err != nil {
		c.logger.Debug("calculation failed",
			observability.String("script", script),
			observability.Error("error", err),
		)
		return "0"
	}
	return format(v)
}

func arguments(list string, values map[string]string) []float64 {
	var out []float64
	for _, a := range strings.Split(list, ",") {
		a = strings.Trim(strings.TrimSpace(a), `"'`)
		if a == "" {
			continue
		}
		if f, err := strconv.ParseFloat(a, 64); err == nil {
			out = append(out, f)
			continue
		}
		out = append(out, numeric(values[a]))
	}
	return out
}

func apply(fn string, args []float64) (float64, bool) {
	if len(args) == 0 {
		return 0, true
	}
	v := args[0]
	switch fn {
	case "sum", "add":
		for _, a := range args[1:] {
			v += a
		}
	case "multiply":
		for _, a := range args[1:] {
			v *= a
		}
	case "subtract":
		for _, a := range args[1:] {
			v -= a
		}
	case "divide":
		for _, a := range args[1:] {
			if a == 0 {
				return 0, false
			}
			v /= a
		}
	}
	return v, !math.IsNaN(v) && !math.IsInf(v, 0)
}

// numeric parses a field value, ignoring thousands separators. Anything
// else counts as zero.
func numeric(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func format(v float64) string {
	v = math.Round(v*1e10) / 1e10
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// fieldNames returns names longest first so a name is never replaced
// inside a longer one.
func fieldNames(fields []annotation.FormField) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	return names
}
