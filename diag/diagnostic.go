package diag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
)

// LabeledSpan pairs a Span with a short human label, optionally in a Source
// other than the Diagnostic's primary one (not needed by this grammar today,
// but kept so cross-file diagnostics are representable without a breaking
// change later).
type LabeledSpan struct {
	Source *Source
	Span   Span
	Label  string
}

// Diagnostic is a single structured error, warning, or note. Every
// diagnostic carries a stable code of the form "utam::<snake_identifier>".
type Diagnostic struct {
	Code     string
	Severity Severity
	Message  string
	Primary  LabeledSpan
	Secondary []LabeledSpan
	Help     string // empty means "no help"
}

// Errorf builds an error-severity Diagnostic anchored on a single primary
// span. It is the common case; use the struct literal directly for
// diagnostics that also carry secondary spans or help text.
func Errorf(code string, src *Source, span Span, label, format string, args ...any) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Primary:  LabeledSpan{Source: src, Span: span, Label: label},
	}
}

// WithHelp returns a copy of d with Help set.
func (d Diagnostic) WithHelp(help string) Diagnostic {
	d.Help = help
	return d
}

// WithSecondary returns a copy of d with an additional secondary span.
func (d Diagnostic) WithSecondary(src *Source, span Span, label string) Diagnostic {
	d.Secondary = append(d.Secondary, LabeledSpan{Source: src, Span: span, Label: label})
	return d
}

// IsError reports whether d is error-severity.
func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// Bundle is an ordered collection of diagnostics produced by one compile
// stage (or the whole pipeline). It is additive: a stage collects every
// diagnostic it can produce before the driver decides whether to stop.
type Bundle struct {
	// ID is a per-bundle identifier, minted by NewBundle, useful when a caller
	// aggregates bundles from multiple compiles (e.g. a SARIF-producing
	// CLI) and needs to correlate a diagnostic back to its run.
	ID   string
	Diagnostics []Diagnostic
}

// NewBundle returns an empty, identified Bundle.
func NewBundle() *Bundle {
	return &Bundle{ID: uuid.NewString()}
}

// Add appends d to the bundle.
func (b *Bundle) Add(d Diagnostic) { b.Diagnostics = append(b.Diagnostics, d) }

// Addf is a convenience wrapper around Add(Errorf(...)).
func (b *Bundle) Addf(code string, src *Source, span Span, label, format string, args ...any) {
	b.Add(Errorf(code, src, span, label, format, args...))
}

// Merge appends every diagnostic of other into b.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}
	b.Diagnostics = append(b.Diagnostics, other.Diagnostics...)
}

// HasErrors reports whether the bundle contains at least one error-severity
// diagnostic.
func (b *Bundle) HasErrors() bool {
	for _, d := range b.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Len reports the number of diagnostics in the bundle.
func (b *Bundle) Len() int { return len(b.Diagnostics) }

// Sort orders diagnostics by primary span start within a Source, matching
// spec.md's Bundle ordering rule. Ties are broken by code for determinism.
func (b *Bundle) Sort() {
	sort.SliceStable(b.Diagnostics, func(i, j int) bool {
		a, c := b.Diagnostics[i], b.Diagnostics[j]
		if a.Primary.Span.Start != c.Primary.Span.Start {
			return a.Primary.Span.Start < c.Primary.Span.Start
		}
		return a.Code < c.Code
	})
}

// machineDiagnostic is the wire shape described in spec.md §6.
type machineSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

type machineDiagnostic struct {
	File     string        `json:"file"`
	Code     string        `json:"code"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Spans    []machineSpan `json:"spans"`
	Help     *string       `json:"help"`
}

// RenderMachine renders the bundle as the stable JSON shape of spec.md §6,
// one entry per diagnostic.
func (b *Bundle) RenderMachine() ([]byte, error) {
	out := make([]machineDiagnostic, 0, len(b.Diagnostics))
	for _, d := range b.Diagnostics {
		spans := make([]machineSpan, 0, 1+len(d.Secondary))
		spans = append(spans, machineSpan{Start: d.Primary.Span.Start, End: d.Primary.Span.End, Label: d.Primary.Label})
		for _, s := range d.Secondary {
			spans = append(spans, machineSpan{Start: s.Span.Start, End: s.Span.End, Label: s.Label})
		}
		var help *string
		if d.Help != "" {
			h := d.Help
			help = &h
		}
		file := d.Primary.Source.Origin
		out = append(out, machineDiagnostic{
			File:     file,
			Code:     d.Code,
			Severity: string(d.Severity),
			Message:  d.Message,
			Spans:    spans,
			Help:     help,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// RenderHuman renders the bundle as source snippets with underlined primary
// spans, in the style most compiler diagnostics use: "file:line:col:
// severity: message [code]", the offending line, a caret underline, and an
// optional help line.
func (b *Bundle) RenderHuman() string {
	var sb strings.Builder
	for i, d := range b.Diagnostics {
		if i > 0 {
			sb.WriteByte('\n')
		}
		src := d.Primary.Source
		if src == nil {
			fmt.Fprintf(&sb, "%s: %s: %s\n", d.Severity, d.Code, d.Message)
			continue
		}
		lineText, lineNo, col, length := src.snippet(d.Primary.Span)
		fmt.Fprintf(&sb, "%s:%d:%d: %s: %s [%s]\n", src.Origin, lineNo, col, d.Severity, d.Message, d.Code)
		fmt.Fprintf(&sb, "  %s\n", lineText)
		fmt.Fprintf(&sb, "  %s%s %s\n", strings.Repeat(" ", col-1), strings.Repeat("^", length), d.Primary.Label)
		for _, s := range d.Secondary {
			sl, sline, scol, _ := src.snippet(s.Span)
			fmt.Fprintf(&sb, "  note: %s:%d:%d: %s\n", src.Origin, sline, scol, s.Label)
			fmt.Fprintf(&sb, "    %s\n", sl)
		}
		if d.Help != "" {
			fmt.Fprintf(&sb, "  help: %s\n", d.Help)
		}
	}
	return sb.String()
}
