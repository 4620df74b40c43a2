// Package reconcile binds the headers of an arbitrary Jira export to the
// canonical input fields a schema declares. Exports arrive with unstable
// casing, stray whitespace and renamed columns, so fields are recognized by
// alias and substring predicates instead of exact names.
package reconcile

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/schema"
)

// Binding maps canonical input field names to the source header bound to
// each. Non-strict schemas may leave fields unbound, in which case the
// field is simply absent from the map.
type Binding map[string]string

// MissingColumnsError reports the required canonical fields no source
// header matched, together with every header that was seen. Both lists are
// part of the message because the fix is almost always renaming a column in
// the export.
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns (checked case-insensitive): %s; found headers: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Build matches source headers against the descriptor's input fields.
//
// Headers are normalized (surrounding whitespace trimmed, lowercased) and
// scanned in file order. Each header binds to the first still-unbound field
// that recognizes it, and is then consumed: one header never feeds two
// fields, and a field never rebinds to a later header. Field declaration
// order in the descriptor encodes matching priority.
//
// For strict descriptors every declared input must end up bound; otherwise
// Build returns a *MissingColumnsError and no binding.
func Build(desc *schema.Descriptor, headers []string) (Binding, error) {
	binding := make(Binding, len(desc.Inputs))

	for _, header := range headers {
		normalized := strings.ToLower(strings.TrimSpace(header))
		if normalized == "" {
			continue
		}
		for _, field := range desc.Inputs {
			if _, done := binding[field.Name]; done {
				continue
			}
			if field.Matches(normalized) {
				binding[field.Name] = header
				break
			}
		}
	}

	if desc.Strict {
		var missing []string
		for _, field := range desc.Inputs {
			if _, done := binding[field.Name]; !done {
				missing = append(missing, field.Name)
			}
		}
		if len(missing) > 0 {
			return nil, &MissingColumnsError{Missing: missing, Found: headers}
		}
	}

	return binding, nil
}

// Project extracts the canonical view of one source row: a map keyed by
// canonical field names holding the values of the bound source columns.
func (b Binding) Project(row map[string]string) map[string]string {
	out := make(map[string]string, len(b))
	for canonical, source := range b {
		out[canonical] = row[source]
	}
	return out
}
