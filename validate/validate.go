// Package validate implements the semantic validator of spec.md §4.4: the
// cross-node invariants the parser cannot check locally (identifier
// uniqueness and legality, reference resolution, capability/action
// compatibility, selector-parameter arity, frame/container constraints).
//
// Validate runs every pass even when an earlier pass produced errors,
// skipping only the individual nodes a cascading failure would make
// meaningless (spec.md §4.4's closing paragraph) — the same
// "accumulate, don't short-circuit" discipline as
// goadesign-goa-ai's expr/agent/root.go RootExpr.Validate, generalized
// from a single flat ValidationErrors collector to one that also carries
// spans and codes (package diag).
package validate

import (
	"strings"

	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/namemap"
)

// Validate runs all six passes and returns the frozen symbol table plus
// every diagnostic collected, ordered by primary span start.
func Validate(src *diag.Source, doc *ast.Document) (*SymbolTable, *diag.Bundle) {
	bundle := diag.NewBundle()

	st, collectBundle := collect(doc, src)
	bundle.Merge(collectBundle)

	checkIdentifiers(doc, st, src, bundle)
	checkSelectors(doc, src, bundle)
	checkElementTypes(doc, st, src, bundle)
	checkMethods(doc, st, src, bundle)
	checkPreloadAndInterface(doc, src, bundle)

	bundle.Sort()
	return st, bundle
}

// --- Pass 1: collection ---------------------------------------------------

func collect(doc *ast.Document, src *diag.Source) (*SymbolTable, *diag.Bundle) {
	st := newSymbolTable()
	bundle := diag.NewBundle()

	var walk func(els []*ast.Element, parentPath []ShadowStep, fromShadow bool)
	walk = func(els []*ast.Element, parentPath []ShadowStep, fromShadow bool) {
		for _, e := range els {
			path := make([]ShadowStep, len(parentPath), len(parentPath)+1)
			copy(path, parentPath)
			path = append(path, ShadowStep{Element: e, FromShadow: fromShadow})

			if e.Name != "" {
				if prev, dup := st.Elements[e.Name]; dup {
					bundle.Add(diag.Errorf("utam::duplicate_element", src, e.NameSpan, "duplicate name", "element name %q is already declared", e.Name).
						WithSecondary(src, prev.NameSpan, "first declared here"))
				} else {
					st.Elements[e.Name] = e
					st.ElementPath[e.Name] = path
				}
			}
			if e.Shadow != nil {
				walk(e.Shadow.Elements, path, true)
			}
			walk(e.Elements, path, false)
		}
	}
	walk(doc.Elements, nil, false)
	if doc.Shadow != nil {
		walk(doc.Shadow.Elements, nil, true)
	}

	for _, m := range doc.Methods {
		if m.Name == "" {
			continue
		}
		if prev, dup := st.Methods[m.Name]; dup {
			bundle.Add(diag.Errorf("utam::identifier_collision", src, m.NameSpan, "duplicate method", "method name %q is already declared", m.Name).
				WithSecondary(src, prev.NameSpan, "first declared here"))
		} else {
			st.Methods[m.Name] = m
		}
	}
	return st, bundle
}

// --- Pass 2: identifier legality ------------------------------------------

func checkIdentifiers(doc *ast.Document, st *SymbolTable, src *diag.Source, bundle *diag.Bundle) {
	checkLegal := func(raw string, span diag.Span, kind string) (mapped string, ok bool) {
		if raw == "" {
			return "", false
		}
		coerced := namemap.FirstCharCoerce(raw)
		if !namemap.IsLegalIdentifier(coerced) {
			bundle.Addf("utam::reserved_identifier", src, span, kind,
				"%s name %q does not map to a legal identifier", kind, raw)
			return "", false
		}
		mapped = namemap.ToSnakeCase(coerced)
		if namemap.IsReservedIdentifier(mapped) {
			bundle.Addf("utam::reserved_identifier", src, span, kind,
				"%s name %q maps to identifier %q, which is a reserved keyword", kind, raw, mapped)
		}
		return mapped, true
	}
	reportCollisions := func(seen map[string][]nameOccurrence) {
		for mapped, occ := range seen {
			if len(occ) < 2 {
				continue
			}
			for i := 1; i < len(occ); i++ {
				bundle.Add(diag.Errorf("utam::identifier_collision", src, occ[i].span, "collides here",
					"names %q and %q both map to identifier %q", occ[0].raw, occ[i].raw, mapped).
					WithSecondary(src, occ[0].span, "first mapped here"))
			}
		}
	}

	// Elements become accessor/waiter methods on the generated type, so they
	// share one identifier namespace.
	elementSeen := make(map[string][]nameOccurrence)
	for name, e := range st.Elements {
		if mapped, ok := checkLegal(name, e.NameSpan, "element"); ok {
			elementSeen[mapped] = append(elementSeen[mapped], nameOccurrence{raw: name, span: e.NameSpan})
		}
	}
	reportCollisions(elementSeen)

	// Methods share a separate namespace from elements; each method's own
	// arguments form their own, per-method namespace.
	methodSeen := make(map[string][]nameOccurrence)
	for name, m := range st.Methods {
		if mapped, ok := checkLegal(name, m.NameSpan, "method"); ok {
			methodSeen[mapped] = append(methodSeen[mapped], nameOccurrence{raw: name, span: m.NameSpan})
		}
		argSeen := make(map[string][]nameOccurrence)
		for _, a := range m.Args {
			if mapped, ok := checkLegal(a.Name, a.Span(), "method argument"); ok {
				argSeen[mapped] = append(argSeen[mapped], nameOccurrence{raw: a.Name, span: a.Span()})
			}
		}
		reportCollisions(argSeen)
	}
	reportCollisions(methodSeen)
}

type nameOccurrence struct {
	raw  string
	span diag.Span
}

// --- Pass 3: selector validation ------------------------------------------

func checkSelectors(doc *ast.Document, src *diag.Source, bundle *diag.Bundle) {
	if doc.Root && doc.Selector == nil {
		bundle.Addf("utam::selector_shape", src, doc.Span(), "document", "root documents require a selector")
	}
	if doc.Selector != nil {
		validateSelector(doc.Selector, src, bundle)
	}
	var walk func(els []*ast.Element)
	walk = func(els []*ast.Element) {
		for _, e := range els {
			if e.Selector != nil {
				validateSelector(e.Selector, src, bundle)
			}
			if e.Shadow != nil {
				walk(e.Shadow.Elements)
			}
			walk(e.Elements)
		}
	}
	walk(doc.Elements)
	if doc.Shadow != nil {
		walk(doc.Shadow.Elements)
	}
}

func validateSelector(s *ast.Selector, src *diag.Source, bundle *diag.Bundle) {
	if s.Kind == ast.SelectorNone {
		bundle.Addf("utam::selector_shape", src, s.Span(), "selector",
			"selector must set exactly one of css, accessid, classchain, uiautomator")
		return
	}
	expected := strings.Count(s.Value, "%s") + strings.Count(s.Value, "%d")
	if expected != len(s.Args) {
		bundle.Addf("utam::selector_params", src, s.Span(), "selector",
			"selector expects %d argument(s) but declares %d", expected, len(s.Args))
		return
	}
	kinds := placeholderKinds(s.Value)
	for i, k := range kinds {
		if i >= len(s.Args) {
			break
		}
		want := "string"
		if k == 'd' {
			want = "number"
		}
		if s.Args[i].Type != want {
			bundle.Addf("utam::selector_type", src, s.Args[i].Span(), "selector argument",
				"argument %q at position %d must be type %q to match placeholder %%%c, got %q",
				s.Args[i].Name, i, want, k, s.Args[i].Type)
		}
	}
}

// placeholderKinds returns, in order of appearance, 's' or 'd' for every
// %s/%d placeholder in value.
func placeholderKinds(value string) []byte {
	var kinds []byte
	for i := 0; i < len(value)-1; i++ {
		if value[i] == '%' {
			switch value[i+1] {
			case 's':
				kinds = append(kinds, 's')
				i++
			case 'd':
				kinds = append(kinds, 'd')
				i++
			}
		}
	}
	return kinds
}

// --- Pass 4: element-type constraints -------------------------------------

func checkElementTypes(doc *ast.Document, st *SymbolTable, src *diag.Source, bundle *diag.Bundle) {
	var walk func(els []*ast.Element)
	walk = func(els []*ast.Element) {
		for _, e := range els {
			checkElementType(e, src, bundle)
			if e.Filter != nil {
				if e.Selector == nil || !e.Selector.ReturnAll {
					bundle.Addf("utam::compose_shape", src, e.Filter.Span(), "filter",
						"element %q declares a filter but its selector does not set returnAll", e.Name)
				}
			}
			if e.Shadow != nil {
				walk(e.Shadow.Elements)
			}
			walk(e.Elements)
		}
	}
	walk(doc.Elements)
	if doc.Shadow != nil {
		walk(doc.Shadow.Elements)
	}
}

func checkElementType(e *ast.Element, src *diag.Source, bundle *diag.Bundle) {
	if e.Type == nil {
		return
	}
	switch e.Type.Kind {
	case ast.ElementTypeFrame:
		if e.Selector != nil && e.Selector.ReturnAll {
			bundle.Addf("utam::frame_return_all", src, e.Selector.Span(), "returnAll",
				"frame element %q may not set selector.returnAll", e.Name)
		}
	case ast.ElementTypeContainer:
		if len(e.Type.Capabilities) > 0 {
			bundle.Addf("utam::container_has_capability", src, e.Type.Span(), "type",
				"container element %q may not also declare capabilities", e.Name)
		}
	case ast.ElementTypeCustomComponent:
		ref := e.Type.Component
		pageObjectsCount := 0
		segs := append([]string{ref.Package}, ref.Segments...)
		segs = append(segs, ref.Name)
		for _, s := range segs {
			if s == "pageObjects" {
				pageObjectsCount++
			}
		}
		if ref.Package == "" || ref.Name == "" || pageObjectsCount != 1 {
			bundle.Addf("utam::custom_component_path", src, e.Type.Span(), "type",
				"custom component path %q must have a non-empty package, a non-empty name, and exactly one pageObjects segment", ref.Raw)
		}
	case ast.ElementTypeCapabilities:
		for _, tag := range e.Type.Capabilities {
			if !isValidationKnownCapability(tag) {
				bundle.Addf("utam::invalid_element_type", src, e.Type.Span(), "type",
					"unknown capability tag %q", tag)
			}
		}
	}
}

func isValidationKnownCapability(tag ast.CapabilityTag) bool { return KnownCapabilityTag(tag) }

// --- Pass 5: method resolution ---------------------------------------------

func checkMethods(doc *ast.Document, st *SymbolTable, src *diag.Source, bundle *diag.Bundle) {
	for _, m := range doc.Methods {
		checkMethodBody(m, st, src, bundle)
	}
}

// bindingScope tracks the compose-variable namespace for one method: every
// method argument, plus (per the Open Question decision recorded in
// DESIGN.md) an implicit binding for every compose statement's `element`
// value once that statement has executed, representing its located
// element's result.
type bindingScope struct {
	argTypes     map[string]string
	elementTypes map[string]string // element name -> "element" once bound
}

func newBindingScope(m *ast.Method) *bindingScope {
	s := &bindingScope{argTypes: make(map[string]string), elementTypes: make(map[string]string)}
	for _, a := range m.Args {
		s.argTypes[a.Name] = a.Type
	}
	return s
}

func checkMethodBody(m *ast.Method, st *SymbolTable, src *diag.Source, bundle *diag.Bundle) {
	scope := newBindingScope(m)
	var lastNonEmpty bool
	var lastElementType *ast.ElementType

	for _, stmt := range m.Compose {
		checkComposeStatement(stmt, st, scope, lastNonEmpty, lastElementType, src, bundle)

		if stmt.Element != "" {
			if el, ok := st.Elements[stmt.Element]; ok {
				scope.elementTypes[stmt.Element] = "element"
				lastElementType = el.Type
			}
		}
		lastNonEmpty = true
		if stmt.Matcher != nil {
			lastElementType = nil // result becomes a boolean, no further chaining target
		}
	}
}

func checkComposeStatement(stmt *ast.ComposeStatement, st *SymbolTable, scope *bindingScope,
	havePrevious bool, prevType *ast.ElementType, src *diag.Source, bundle *diag.Bundle) {

	switch {
	case stmt.ApplyExternal != "":
		// External helper calls are opaque to this validator by design
		// (spec.md §3.4's compose well-formedness matrix treats them as a
		// distinct, self-contained case).
	case stmt.Element == "" && stmt.Apply == "" && !stmt.Chain:
		bundle.Addf("utam::compose_shape", src, stmt.Span(), "compose statement",
			"a compose statement must set element, apply, chain, or applyExternal")
		return
	case stmt.Chain:
		if !havePrevious {
			bundle.Addf("utam::chain_requires_previous", src, stmt.Span(), "chain",
				"chain requires a preceding compose statement")
		} else if prevType == nil || len(ActionsFor(prevType)) == 0 {
			bundle.Addf("utam::chain_requires_previous", src, stmt.Span(), "chain",
				"the preceding statement's result does not support chaining")
		}
	}

	var resolvedElement *ast.Element
	if stmt.Element != "" {
		el, ok := st.Elements[stmt.Element]
		if !ok {
			bundle.Addf("utam::unknown_element", src, stmt.ElementSpan, "element",
				"unknown element %q", stmt.Element)
		} else {
			resolvedElement = el
		}
	}

	if stmt.Apply != "" {
		var actions map[string]Action
		var elementType *ast.ElementType
		switch {
		case resolvedElement != nil:
			elementType = resolvedElement.Type
		case stmt.Chain:
			elementType = prevType
		}
		if elementType != nil {
			actions = ActionsFor(elementType)
		}
		if action, ok := actions[stmt.Apply]; ok {
			checkComposeArgs(stmt, action, scope, src, bundle)
		} else if elementType != nil {
			help := "no actions available for this element type"
			if names := ActionNamesForHelp(elementType); len(names) > 0 {
				help = "available actions: " + strings.Join(names, ", ")
			}
			bundle.Add(diag.Errorf("utam::unknown_action", src, stmt.ApplySpan, "action",
				"%q is not a valid action for this element", stmt.Apply).WithHelp(help))
		}
	}

	if stmt.Matcher != nil {
		checkMatcherOperand(stmt.Matcher, src, bundle)
	}
}

func checkComposeArgs(stmt *ast.ComposeStatement, action Action, scope *bindingScope, src *diag.Source, bundle *diag.Bundle) {
	for i, arg := range stmt.Args {
		var want string
		if i < len(action.Params) {
			want = action.Params[i]
		}
		switch arg.Kind {
		case ast.ComposeArgLiteralString:
			if want != "" && want != "string" && want != "locator" {
				bundle.Addf("utam::arg_type_mismatch", src, arg.Span(), "argument",
					"argument %d expects %s, got a string literal", i, want)
			}
		case ast.ComposeArgLiteralNumber:
			if want != "" && want != "number" {
				bundle.Addf("utam::arg_type_mismatch", src, arg.Span(), "argument",
					"argument %d expects %s, got a number literal", i, want)
			}
		case ast.ComposeArgLiteralBool:
			if want != "" && want != "bool" {
				bundle.Addf("utam::arg_type_mismatch", src, arg.Span(), "argument",
					"argument %d expects %s, got a bool literal", i, want)
			}
		case ast.ComposeArgReference:
			refType, bound := scope.argTypes[arg.RefName]
			_, elementBound := scope.elementTypes[arg.RefName]
			if !bound && !elementBound {
				bundle.Addf("utam::unknown_element", src, arg.Span(), "argument",
					"reference %q does not name an enclosing method argument or a preceding compose-variable binding", arg.RefName)
				continue
			}
			if bound && want != "" && refType != "" && refType != want {
				bundle.Addf("utam::arg_type_mismatch", src, arg.Span(), "argument",
					"argument %d expects %s, got reference %q of type %s", i, want, arg.RefName, refType)
			}
		case ast.ComposeArgSelectorLiteral:
			if arg.SelectorLiteral != nil {
				validateSelector(arg.SelectorLiteral, src, bundle)
			}
		}
	}
}

func checkMatcherOperand(m *ast.Matcher, src *diag.Source, bundle *diag.Bundle) {
	switch m.Kind {
	case ast.MatcherIsTrue, ast.MatcherIsFalse, ast.MatcherNotNull:
		// no operand required
	case ast.MatcherStringEquals, ast.MatcherStringContains:
		if m.Operand == "" {
			bundle.Addf("utam::matcher_type_mismatch", src, m.Span(), "matcher",
				"matcher %q requires a string operand", m.Kind)
		}
	default:
		bundle.Addf("utam::matcher_type_mismatch", src, m.Span(), "matcher", "unknown matcher kind %q", m.Kind)
	}
}

// --- Pass 6: pre-load and interface constraints ----------------------------

func checkPreloadAndInterface(doc *ast.Document, src *diag.Source, bundle *diag.Bundle) {
	for _, stmt := range doc.BeforeLoad {
		if stmt.Matcher == nil && stmt.ReturnType != "" && stmt.ReturnType != "bool" && stmt.ReturnType != "boolean" {
			bundle.Addf("utam::compose_shape", src, stmt.Span(), "beforeLoad",
				"beforeLoad statements may only return booleans, got return type %q", stmt.ReturnType)
		}
	}
	if doc.IsInterface {
		for _, m := range doc.Methods {
			if len(m.Compose) > 0 {
				bundle.Addf("utam::compose_shape", src, m.Span(), "method",
					"interface method %q may not declare a compose body", m.Name)
			}
		}
		if len(doc.BeforeLoad) > 0 {
			bundle.Addf("utam::compose_shape", src, doc.Span(), "document",
				"interface documents may not declare beforeLoad statements")
		}
	}
}
