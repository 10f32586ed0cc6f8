// Package compile implements the Driver of spec.md §4.8: the single
// entry point that runs parse -> schema -> validate -> name-map -> codegen
// in order and stops at the first stage producing error-severity
// diagnostics, following the same "run front-to-back, bail on first hard
// failure" shape as goadesign-goa-ai's cmd/gen pipeline
// (design -> validate -> codegen -> write) but collapsed into one function
// since this compiler has no filesystem or multi-file output to stage.
package compile

import (
	"context"

	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/codegen"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/namemap"
	"github.com/utamc/utamc/parse"
	"github.com/utamc/utamc/schema"
	"github.com/utamc/utamc/validate"
	"goa.design/clue/log"
)

// Options configures one compile run.
type Options struct {
	Strict bool

	// Context, when non-nil, is a goa.design/clue/log logging context
	// (built with log.Context) used to trace pipeline stages via
	// log.Debug. Nil disables stage tracing.
	Context context.Context
}

// Result is the outcome of one compile: exactly one of Text or Diagnostics
// is meaningful, mirroring spec.md §4.8's Result<String, Bundle>.
type Result struct {
	Text        string
	Diagnostics *diag.Bundle
}

// OK reports whether the compile succeeded without error-severity
// diagnostics.
func (r Result) OK() bool { return r.Diagnostics == nil || !r.Diagnostics.HasErrors() }

func (o Options) trace(stage string) {
	if o.Context != nil {
		log.Debug(o.Context, log.KV{K: "stage", V: stage})
	}
}

// Compile runs the full pipeline against source text with the given
// origin name, per spec.md §4.8.
func Compile(sourceText, origin string, opts Options) Result {
	src := diag.NewSource(origin, sourceText)

	opts.trace("parse")
	doc, raw, bundle := parse.Parse(src, parse.Options{Strict: opts.Strict})
	if bundle.HasErrors() {
		bundle.Sort()
		return Result{Diagnostics: bundle}
	}

	opts.trace("schema")
	schemaBundle := schema.Validate(src, raw)
	if schemaBundle.HasErrors() {
		schemaBundle.Sort()
		return Result{Diagnostics: schemaBundle}
	}
	bundle.Merge(schemaBundle)

	opts.trace("validate")
	st, semBundle := validate.Validate(src, doc)
	bundle.Merge(semBundle)
	if bundle.HasErrors() {
		bundle.Sort()
		return Result{Diagnostics: bundle}
	}

	opts.trace("namemap")
	nm, collBundle := buildNameMap(src, doc)
	bundle.Merge(collBundle)
	if bundle.HasErrors() {
		bundle.Sort()
		return Result{Diagnostics: bundle}
	}

	opts.trace("codegen")
	text, err := codegen.Generate(doc, st, nm)
	if err != nil {
		bundle.Addf("utam::internal", src, doc.Span(), "codegen", "internal error: %s", err)
		bundle.Sort()
		return Result{Diagnostics: bundle}
	}

	return Result{Text: text}
}

// buildNameMap wraps namemap.Build; the collision pass already ran as part
// of semantic validation (utam::identifier_collision), so this stage only
// exists to keep the pipeline's five named stages each owning one package,
// per spec.md §4.8's enumeration. It always returns an empty bundle.
func buildNameMap(src *diag.Source, doc *ast.Document) (*namemap.Mapper, *diag.Bundle) {
	return namemap.Build(doc), diag.NewBundle()
}
