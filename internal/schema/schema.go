// =============================================================================
// Jira to XLSX Converter - Schema Descriptors
// =============================================================================
//
// This package defines output schemas as data. A Descriptor carries
// everything that differs between the Applens and MSM outputs:
//
//   - which source columns the schema needs and how to recognize them
//   - the output columns, in final order, each with its derivation rule
//   - whether missing source columns fail the batch (strict) or degrade
//     to defaults (best effort)
//
// The pipeline, reconciler, deriver and writer are all parameterized by a
// Descriptor; adding a third schema means adding one more constructor file
// here, not another pipeline.
//
// =============================================================================

package schema

import (
	"fmt"
	"strings"
)

// =============================================================================
// RULE TYPES
// =============================================================================

// RuleKind selects the derivation behavior for one output field.
type RuleKind int

const (
	// RuleCopy copies the value of a canonical input field.
	RuleCopy RuleKind = iota

	// RuleConstant emits a fixed value.
	RuleConstant

	// RuleLookup maps the value of a canonical input field through a
	// table. Keys match exactly, case included.
	RuleLookup

	// RuleConditional runs a case-insensitive substring test against an
	// output field derived earlier in the field list.
	RuleConditional

	// RuleSequential emits the 1-based row ordinal within the batch.
	RuleSequential

	// RuleMonth emits the month name of the pipeline clock ("January").
	RuleMonth

	// RuleDate parses a canonical input field as a timestamp and renders
	// the canonical form; unparseable values fall back to Default.
	RuleDate

	// RuleSecondsToHours parses a canonical input field as seconds and
	// renders hours rounded to two decimals; non-numeric values become 0.
	RuleSecondsToHours
)

// Rule is the declarative derivation for one output field. Which members
// are meaningful depends on Kind.
type Rule struct {
	Kind RuleKind

	// Source names a canonical input field, except for RuleConditional
	// where it names an output header declared earlier in the field list.
	Source string

	// Value is the fixed output of RuleConstant.
	Value string

	// Default is the fallback for RuleCopy (unresolved input), RuleLookup
	// (key miss) and RuleDate (unparseable value).
	Default string

	// Lookup is the translation table for RuleLookup.
	Lookup map[string]string

	// Contains, Then and Else drive RuleConditional: when the source value
	// contains the substring (case-insensitive) the field gets Then,
	// otherwise Else.
	Contains string
	Then     string
	Else     string
}

// =============================================================================
// INPUT MATCHING TYPES
// =============================================================================

// InputField describes one canonical source column and the predicates that
// recognize it among the headers of an arbitrary export. Declaration order
// encodes matching priority.
type InputField struct {
	// Name is the canonical field name derivation rules refer to.
	Name string

	// Aliases match a normalized header exactly.
	Aliases []string

	// Contains match a normalized header by substring.
	Contains []string
}

// Matches reports whether a normalized (trimmed, lowercased) header is
// recognized as this field.
func (f InputField) Matches(header string) bool {
	for _, alias := range f.Aliases {
		if header == alias {
			return true
		}
	}
	for _, sub := range f.Contains {
		if strings.Contains(header, sub) {
			return true
		}
	}
	return false
}

// =============================================================================
// DESCRIPTOR TYPES
// =============================================================================

// Field is one output column: its exact header and its derivation rule.
type Field struct {
	Header string
	Rule   Rule

	// Numeric marks fields the writer should emit as number cells when the
	// derived value parses as a float.
	Numeric bool
}

// Descriptor is a complete output schema.
type Descriptor struct {
	// Name identifies the schema in messages and output file names.
	Name string

	// SheetName is the worksheet name in the generated workbook.
	SheetName string

	// Strict makes every declared input required: reconciliation fails the
	// batch when one is missing. Non-strict schemas leave unresolved
	// inputs unbound and let rules fall back to defaults.
	Strict bool

	// KeyColumn names the output column whose emptiness drops a row
	// during validation.
	KeyColumn string

	// Inputs are the canonical source columns, in matching priority order.
	Inputs []InputField

	// Fields are the output columns, in final column order.
	Fields []Field
}

// Headers returns the output column names in declared order.
func (d *Descriptor) Headers() []string {
	headers := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		headers[i] = f.Header
	}
	return headers
}

// Validate checks the descriptor for internal consistency. It is run once
// at pipeline construction so a malformed descriptor fails fast instead of
// producing a half-derived batch.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("descriptor has no name")
	}
	if d.SheetName == "" {
		return fmt.Errorf("descriptor %s has no sheet name", d.Name)
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("descriptor %s has no output fields", d.Name)
	}

	inputs := make(map[string]bool, len(d.Inputs))
	for _, in := range d.Inputs {
		if in.Name == "" {
			return fmt.Errorf("descriptor %s has an unnamed input field", d.Name)
		}
		if inputs[in.Name] {
			return fmt.Errorf("descriptor %s declares input %q twice", d.Name, in.Name)
		}
		if len(in.Aliases) == 0 && len(in.Contains) == 0 {
			return fmt.Errorf("descriptor %s input %q has no matching predicates", d.Name, in.Name)
		}
		inputs[in.Name] = true
	}

	seen := make(map[string]bool, len(d.Fields))
	for i, f := range d.Fields {
		if f.Header == "" {
			return fmt.Errorf("descriptor %s field %d has no header", d.Name, i)
		}
		if seen[f.Header] {
			return fmt.Errorf("descriptor %s declares column %q twice", d.Name, f.Header)
		}

		switch f.Rule.Kind {
		case RuleCopy, RuleDate, RuleSecondsToHours:
			if !inputs[f.Rule.Source] {
				return fmt.Errorf("descriptor %s column %q references unknown input %q", d.Name, f.Header, f.Rule.Source)
			}
		case RuleLookup:
			if !inputs[f.Rule.Source] {
				return fmt.Errorf("descriptor %s column %q references unknown input %q", d.Name, f.Header, f.Rule.Source)
			}
			if len(f.Rule.Lookup) == 0 {
				return fmt.Errorf("descriptor %s column %q has an empty lookup table", d.Name, f.Header)
			}
		case RuleConditional:
			// Conditionals read the output row built so far, so the source
			// column must already be derived.
			if !seen[f.Rule.Source] {
				return fmt.Errorf("descriptor %s column %q tests %q which is not derived earlier", d.Name, f.Header, f.Rule.Source)
			}
		case RuleConstant, RuleSequential, RuleMonth:
			// No source to check.
		default:
			return fmt.Errorf("descriptor %s column %q has unknown rule kind %d", d.Name, f.Header, f.Rule.Kind)
		}

		seen[f.Header] = true
	}

	if d.KeyColumn == "" || !seen[d.KeyColumn] {
		return fmt.Errorf("descriptor %s key column %q is not a declared column", d.Name, d.KeyColumn)
	}

	return nil
}

// =============================================================================
// MODE LOOKUP
// =============================================================================

// ForMode returns the descriptor for a schema name as given on the command
// line. Matching is case-insensitive.
func ForMode(name string) (*Descriptor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "applens":
		return Applens(), nil
	case "msm":
		return MSM(), nil
	default:
		return nil, fmt.Errorf("unknown mode %q (valid modes: applens, msm)", name)
	}
}

// Modes lists the schema names ForMode accepts.
func Modes() []string {
	return []string{"applens", "msm"}
}
