// Package transform evaluates a schema's derivation rules over a reconciled
// batch: every source row becomes one output row holding a value for every
// declared output column. All schema-specific behavior lives in the rules;
// this package is just the interpreter.
package transform

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/normalize"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/reconcile"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
)

// ctxCheckInterval is how many rows are derived between context checks.
const ctxCheckInterval = 500

// Options tunes derivation. The zero value is ready to use.
type Options struct {
	// Now supplies the clock the Month rule reads. Nil means time.Now.
	// Tests inject a fixed clock here so output is reproducible.
	Now func() time.Time
}

// Derive computes the output rows for a batch.
//
// Rows keep their input order. For each row the descriptor's fields are
// evaluated in declared order, so a Conditional rule can read output columns
// derived before it. Derivation never fails on cell content: malformed dates
// and numbers fall back to their rule's default. The only errors are context
// cancellation.
func Derive(ctx context.Context, desc *schema.Descriptor, binding reconcile.Binding, rows []map[string]string, opts Options) ([]map[string]string, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	// The month is sampled once per batch: a run crossing midnight on the
	// last day of a month must not split its rows across two months.
	month := now().Month().String()

	out := make([]map[string]string, 0, len(rows))
	for i, row := range rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		canonical := binding.Project(row)
		outRow := make(map[string]string, len(desc.Fields))
		for _, field := range desc.Fields {
			outRow[field.Header] = evaluate(field.Rule, canonical, outRow, i+1, month)
		}
		out = append(out, outRow)
	}

	return out, nil
}

// evaluate computes one field value. in holds the canonical input row, out
// the output row built so far, ordinal the 1-based row number in the batch.
func evaluate(rule schema.Rule, in, out map[string]string, ordinal int, month string) string {
	switch rule.Kind {
	case schema.RuleCopy:
		if value, ok := in[rule.Source]; ok {
			return value
		}
		return rule.Default

	case schema.RuleConstant:
		return rule.Value

	case schema.RuleLookup:
		if value, ok := rule.Lookup[in[rule.Source]]; ok {
			return value
		}
		return rule.Default

	case schema.RuleConditional:
		if strings.Contains(strings.ToUpper(out[rule.Source]), strings.ToUpper(rule.Contains)) {
			return rule.Then
		}
		return rule.Else

	case schema.RuleSequential:
		return strconv.Itoa(ordinal)

	case schema.RuleMonth:
		return month

	case schema.RuleDate:
		if t, ok := normalize.ParseTimestamp(in[rule.Source]); ok {
			return normalize.FormatTimestamp(t)
		}
		return rule.Default

	case schema.RuleSecondsToHours:
		return normalize.FormatHours(normalize.SecondsToHours(in[rule.Source]))
	}

	// Unknown kinds are rejected by Descriptor.Validate before any batch
	// runs; this is unreachable for a validated descriptor.
	return ""
}
