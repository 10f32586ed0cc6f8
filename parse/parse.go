// Package parse maps a JSON document's span-tracking value tree (package
// jsonval) into the grammar model (package ast). Unknown object fields are
// ignored for forward compatibility; with Options.Strict they additionally
// produce note-severity diagnostics, per spec.md §4.2.
package parse

import (
	"fmt"

	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/jsonval"
)

// Options configures the parser.
type Options struct {
	// Strict, when true, causes unrecognized object keys to additionally
	// produce utam::unknown_field note diagnostics (they are always
	// tolerated structurally; Strict only affects whether they're reported).
	Strict bool
}

// Parse maps src's JSON text into a Document and its raw jsonval.Value (the
// latter consumed by package schema before semantic validation runs).
// Invalid JSON, or JSON whose top-level value is not an object, yields a
// single utam::parse_error diagnostic and a nil Document/Value.
func Parse(src *diag.Source, opts Options) (*ast.Document, *jsonval.Value, *diag.Bundle) {
	bundle := diag.NewBundle()

	root, err := jsonval.Parse(src.Text)
	if err != nil {
		offset := 0
		msg := err.Error()
		if pe, ok := err.(*jsonval.ParseError); ok {
			offset = pe.Offset
			msg = pe.Message
		}
		end := offset + 1
		if end > len(src.Text) {
			end = len(src.Text)
		}
		bundle.Addf("utam::parse_error", src, diag.Span{Start: offset, End: end}, "here", "malformed JSON: %s", msg)
		return nil, nil, bundle
	}

	if root.Kind != jsonval.KindObject {
		bundle.Addf("utam::parse_error", src, root.Span, "document", "top-level JSON value must be an object")
		return nil, nil, bundle
	}

	p := &parser{src: src, opts: opts, bundle: bundle}
	doc := p.parseDocument(root)
	return doc, root, bundle
}

type parser struct {
	src    *diag.Source
	opts   Options
	bundle *diag.Bundle
}

// checkUnknown emits note diagnostics (Strict mode only) for every member of
// obj whose key is not in known.
func (p *parser) checkUnknown(obj *jsonval.Value, context string, known map[string]bool) {
	if !p.opts.Strict || obj == nil || obj.Kind != jsonval.KindObject {
		return
	}
	for _, m := range obj.Object {
		if !known[m.Key] {
			p.bundle.Add(diag.Diagnostic{
				Code:     "utam::unknown_field",
				Severity: diag.SeverityNote,
				Message:  fmt.Sprintf("unrecognized field %q in %s (ignored)", m.Key, context),
				Primary:  diag.LabeledSpan{Source: p.src, Span: m.KeySpan, Label: "unknown field"},
			})
		}
	}
}

func (p *parser) str(obj *jsonval.Value, key string) (string, diag.Span, bool) {
	m := obj.Member(key)
	if m == nil || m.Value.Kind != jsonval.KindString {
		return "", diag.ZeroSpan, false
	}
	return m.Value.String, m.Value.Span, true
}

func (p *parser) boolField(obj *jsonval.Value, key string, def bool) bool {
	v := obj.Get(key)
	if v == nil || v.Kind != jsonval.KindBool {
		return def
	}
	return v.Bool
}

func (p *parser) numField(obj *jsonval.Value, key string) (float64, bool) {
	v := obj.Get(key)
	if v == nil || v.Kind != jsonval.KindNumber {
		return 0, false
	}
	return v.Number, true
}

var documentFields = fieldSet(
	"description", "root", "selector", "exposeRootElement", "type", "platform",
	"implements", "isInterface", "shadow", "elements", "methods", "beforeLoad", "metadata",
)

func (p *parser) parseDocument(v *jsonval.Value) *ast.Document {
	p.checkUnknown(v, "document", documentFields)

	doc := &ast.Document{Origin: p.src.Origin}
	doc.SetSpan(v.Span)
	doc.Description = p.parseDescription(v.Get("description"))
	doc.Root = p.boolField(v, "root", false)
	doc.ExposeRootElement = p.boolField(v, "exposeRootElement", false)
	doc.IsInterface = p.boolField(v, "isInterface", false)
	if pf, _, ok := p.str(v, "platform"); ok {
		doc.Platform = pf
	}
	if impl, _, ok := p.str(v, "implements"); ok {
		doc.Implements = impl
	}
	if sel := v.Get("selector"); sel != nil {
		doc.Selector = p.parseSelector(sel)
	} else if doc.Root {
		doc.Selector = nil // validator reports utam::root_requires_selector-equivalent via missing check
	}
	if t := v.Get("type"); t != nil {
		doc.ActionTypes = p.parseCapabilityList(t)
	}
	if sh := v.Get("shadow"); sh != nil {
		doc.Shadow = p.parseShadow(sh)
	}
	if els := v.Get("elements"); els != nil && els.Kind == jsonval.KindArray {
		for _, e := range els.Array {
			doc.Elements = append(doc.Elements, p.parseElement(e))
		}
	}
	if methods := v.Get("methods"); methods != nil && methods.Kind == jsonval.KindArray {
		for _, m := range methods.Array {
			doc.Methods = append(doc.Methods, p.parseMethod(m))
		}
	}
	if before := v.Get("beforeLoad"); before != nil && before.Kind == jsonval.KindArray {
		for _, s := range before.Array {
			doc.BeforeLoad = append(doc.BeforeLoad, p.parseCompose(s))
		}
	}
	if md := v.Get("metadata"); md != nil && md.Kind == jsonval.KindObject {
		doc.Metadata = md.ToInterface().(map[string]any)
	}
	return doc
}

func (p *parser) parseDescription(v *jsonval.Value) *ast.Description {
	if v == nil {
		return nil
	}
	d := &ast.Description{}
	d.SetSpan(v.Span)
	switch v.Kind {
	case jsonval.KindString:
		d.Text = []string{v.String}
	case jsonval.KindObject:
		p.checkUnknown(v, "description", fieldSet("text", "author"))
		if text := v.Get("text"); text != nil && text.Kind == jsonval.KindArray {
			for _, t := range text.Array {
				if t.Kind == jsonval.KindString {
					d.Text = append(d.Text, t.String)
				}
			}
		}
		if author, _, ok := p.str(v, "author"); ok {
			d.Author = author
		}
	default:
		p.bundle.Addf("utam::invalid_element_type", p.src, v.Span, "description",
			"description must be a string or {text, author} object")
	}
	return d
}

func (p *parser) parseShadow(v *jsonval.Value) *ast.Shadow {
	if v == nil || v.Kind != jsonval.KindObject {
		return nil
	}
	p.checkUnknown(v, "shadow", fieldSet("elements"))
	sh := &ast.Shadow{}
	sh.SetSpan(v.Span)
	if els := v.Get("elements"); els != nil && els.Kind == jsonval.KindArray {
		for _, e := range els.Array {
			sh.Elements = append(sh.Elements, p.parseElement(e))
		}
	}
	return sh
}

var elementFields = fieldSet(
	"name", "type", "selector", "public", "nullable", "generateWait", "load",
	"shadow", "elements", "filter", "description",
)

func (p *parser) parseElement(v *jsonval.Value) *ast.Element {
	if v == nil || v.Kind != jsonval.KindObject {
		return &ast.Element{}
	}
	p.checkUnknown(v, "element", elementFields)

	e := &ast.Element{}
	e.SetSpan(v.Span)
	if name, nameSpan, ok := p.str(v, "name"); ok {
		e.Name = name
		e.NameSpan = nameSpan
	}
	if t := v.Get("type"); t != nil {
		e.Type = p.parseElementType(t)
	}
	if sel := v.Get("selector"); sel != nil {
		e.Selector = p.parseSelector(sel)
	}
	e.Public = p.boolField(v, "public", false)
	e.Nullable = p.boolField(v, "nullable", false)
	e.GenerateWait = p.boolField(v, "generateWait", false)
	e.Load = p.boolField(v, "load", false)
	if sh := v.Get("shadow"); sh != nil {
		e.Shadow = p.parseShadow(sh)
	}
	if els := v.Get("elements"); els != nil && els.Kind == jsonval.KindArray {
		for _, c := range els.Array {
			e.Elements = append(e.Elements, p.parseElement(c))
		}
	}
	if f := v.Get("filter"); f != nil {
		e.Filter = p.parseFilter(f)
	}
	if d := v.Get("description"); d != nil {
		e.Description = p.parseDescription(d)
	}
	if e.Type != nil && e.Type.Kind == ast.ElementTypeContainer && e.Selector == nil {
		// Container's default locator when none is given (spec.md §3.2).
		s := &ast.Selector{Kind: ast.SelectorCSS, Value: ":scope > *:first-child"}
		s.SetSpan(e.Span())
		e.Selector = s
	}
	return e
}

// parseElementType disambiguates the ElementType tagged union by JSON shape,
// per spec.md §4.2 point 3.
func (p *parser) parseElementType(v *jsonval.Value) *ast.ElementType {
	et := &ast.ElementType{}
	et.SetSpan(v.Span)
	switch v.Kind {
	case jsonval.KindArray:
		et.Kind = ast.ElementTypeCapabilities
		et.Capabilities = p.parseCapabilityList(v)
		return et
	case jsonval.KindString:
		switch v.String {
		case "container":
			et.Kind = ast.ElementTypeContainer
			return et
		case "frame":
			et.Kind = ast.ElementTypeFrame
			return et
		default:
			if containsSlash(v.String) {
				et.Kind = ast.ElementTypeCustomComponent
				et.Component = parseComponentRef(v.String)
				return et
			}
		}
	}
	et.Kind = ast.ElementTypeInvalid
	et.RawText = v.String
	p.bundle.Addf("utam::invalid_element_type", p.src, v.Span, "type",
		"element type must be a capability array, \"container\", \"frame\", or a custom component path")
	return et
}

func (p *parser) parseCapabilityList(v *jsonval.Value) []ast.CapabilityTag {
	if v.Kind != jsonval.KindArray {
		if v.Kind == jsonval.KindString {
			return []ast.CapabilityTag{ast.CapabilityTag(v.String)}
		}
		return nil
	}
	tags := make([]ast.CapabilityTag, 0, len(v.Array))
	for _, e := range v.Array {
		if e.Kind == jsonval.KindString {
			tags = append(tags, ast.CapabilityTag(e.String))
		}
	}
	return tags
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}
	return false
}

func parseComponentRef(raw string) ast.ComponentRef {
	segs := splitSlash(raw)
	ref := ast.ComponentRef{Raw: raw}
	if len(segs) > 0 {
		ref.Package = segs[0]
	}
	if len(segs) > 1 {
		ref.Name = segs[len(segs)-1]
		ref.Segments = segs[1 : len(segs)-1]
	}
	return ref
}

func splitSlash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

var selectorFields = fieldSet("css", "accessid", "classchain", "uiautomator", "args", "returnAll")

func (p *parser) parseSelector(v *jsonval.Value) *ast.Selector {
	if v == nil || v.Kind != jsonval.KindObject {
		return &ast.Selector{}
	}
	p.checkUnknown(v, "selector", selectorFields)

	s := &ast.Selector{}
	s.SetSpan(v.Span)
	kinds := []struct {
		key  string
		kind ast.SelectorKind
	}{
		{"css", ast.SelectorCSS},
		{"accessid", ast.SelectorAccessID},
		{"classchain", ast.SelectorClassChain},
		{"uiautomator", ast.SelectorUIAutomator},
	}
	for _, k := range kinds {
		if val, valSpan, ok := p.str(v, k.key); ok {
			s.Kind = k.kind
			s.Value = val
			s.ValueSpan = valSpan
		}
	}
	if args := v.Get("args"); args != nil && args.Kind == jsonval.KindArray {
		for _, a := range args.Array {
			s.Args = append(s.Args, p.parseSelectorArg(a))
		}
	}
	if ra := v.Get("returnAll"); ra != nil && ra.Kind == jsonval.KindBool {
		s.ReturnAll = ra.Bool
	}
	return s
}

func (p *parser) parseSelectorArg(v *jsonval.Value) *ast.SelectorArg {
	a := &ast.SelectorArg{}
	if v == nil || v.Kind != jsonval.KindObject {
		return a
	}
	p.checkUnknown(v, "selector argument", fieldSet("name", "type"))
	a.SetSpan(v.Span)
	if name, _, ok := p.str(v, "name"); ok {
		a.Name = name
	}
	if typ, _, ok := p.str(v, "type"); ok {
		a.Type = typ
	}
	return a
}

var filterFields = fieldSet("find", "match", "findFirst")

func (p *parser) parseFilter(v *jsonval.Value) *ast.Filter {
	f := &ast.Filter{}
	if v == nil || v.Kind != jsonval.KindObject {
		return f
	}
	p.checkUnknown(v, "filter", filterFields)
	f.SetSpan(v.Span)
	if find, findSpan, ok := p.str(v, "find"); ok {
		f.Find = find
		f.FindSpan = findSpan
	}
	if m := v.Get("match"); m != nil {
		f.Match = p.parseMatcher(m)
	}
	f.FindFirst = p.boolField(v, "findFirst", false)
	return f
}

var matcherFields = fieldSet("kind", "operand")

func (p *parser) parseMatcher(v *jsonval.Value) *ast.Matcher {
	m := &ast.Matcher{}
	if v == nil || v.Kind != jsonval.KindObject {
		return m
	}
	p.checkUnknown(v, "matcher", matcherFields)
	m.SetSpan(v.Span)
	if kind, _, ok := p.str(v, "kind"); ok {
		m.Kind = ast.MatcherKind(kind)
	}
	if operand, _, ok := p.str(v, "operand"); ok {
		m.Operand = operand
	}
	return m
}

var methodFields = fieldSet("name", "args", "compose", "returnType", "returnAll")

func (p *parser) parseMethod(v *jsonval.Value) *ast.Method {
	m := &ast.Method{}
	if v == nil || v.Kind != jsonval.KindObject {
		return m
	}
	p.checkUnknown(v, "method", methodFields)
	m.SetSpan(v.Span)
	if name, nameSpan, ok := p.str(v, "name"); ok {
		m.Name = name
		m.NameSpan = nameSpan
	}
	if args := v.Get("args"); args != nil && args.Kind == jsonval.KindArray {
		for _, a := range args.Array {
			m.Args = append(m.Args, p.parseMethodArg(a))
		}
	}
	if compose := v.Get("compose"); compose != nil && compose.Kind == jsonval.KindArray {
		for _, c := range compose.Array {
			m.Compose = append(m.Compose, p.parseCompose(c))
		}
	}
	if rt, _, ok := p.str(v, "returnType"); ok {
		m.ReturnType = rt
	}
	m.ReturnAll = p.boolField(v, "returnAll", false)
	return m
}

func (p *parser) parseMethodArg(v *jsonval.Value) *ast.MethodArg {
	a := &ast.MethodArg{}
	if v == nil || v.Kind != jsonval.KindObject {
		return a
	}
	p.checkUnknown(v, "method argument", fieldSet("name", "type"))
	a.SetSpan(v.Span)
	if name, _, ok := p.str(v, "name"); ok {
		a.Name = name
	}
	if typ, _, ok := p.str(v, "type"); ok {
		a.Type = typ
	}
	return a
}

var composeFields = fieldSet(
	"element", "apply", "args", "chain", "returnType", "returnAll", "matcher", "applyExternal",
)

func (p *parser) parseCompose(v *jsonval.Value) *ast.ComposeStatement {
	s := &ast.ComposeStatement{}
	if v == nil || v.Kind != jsonval.KindObject {
		return s
	}
	p.checkUnknown(v, "compose statement", composeFields)
	s.SetSpan(v.Span)
	if el, elSpan, ok := p.str(v, "element"); ok {
		s.Element = el
		s.ElementSpan = elSpan
	}
	if ap, apSpan, ok := p.str(v, "apply"); ok {
		s.Apply = ap
		s.ApplySpan = apSpan
	}
	if args := v.Get("args"); args != nil && args.Kind == jsonval.KindArray {
		for _, a := range args.Array {
			s.Args = append(s.Args, p.parseComposeArg(a))
		}
	}
	s.Chain = p.boolField(v, "chain", false)
	if rt, _, ok := p.str(v, "returnType"); ok {
		s.ReturnType = rt
	}
	s.ReturnAll = p.boolField(v, "returnAll", false)
	if m := v.Get("matcher"); m != nil {
		s.Matcher = p.parseMatcher(m)
	}
	if ext, _, ok := p.str(v, "applyExternal"); ok {
		s.ApplyExternal = ext
	}
	return s
}

func (p *parser) parseComposeArg(v *jsonval.Value) *ast.ComposeArg {
	a := &ast.ComposeArg{}
	if v == nil {
		return a
	}
	a.SetSpan(v.Span)
	switch v.Kind {
	case jsonval.KindString:
		a.Kind = ast.ComposeArgLiteralString
		a.StringValue = v.String
	case jsonval.KindNumber:
		a.Kind = ast.ComposeArgLiteralNumber
		a.NumberValue = v.Number
	case jsonval.KindBool:
		a.Kind = ast.ComposeArgLiteralBool
		a.BoolValue = v.Bool
	case jsonval.KindObject:
		switch {
		case v.Has("name") && v.Has("type"):
			a.Kind = ast.ComposeArgReference
			if name, _, ok := p.str(v, "name"); ok {
				a.RefName = name
			}
			if typ, _, ok := p.str(v, "type"); ok {
				a.RefType = typ
			}
		case v.Has("kind"):
			a.Kind = ast.ComposeArgPredicate
			a.Predicate = p.parseMatcher(v)
		default:
			a.Kind = ast.ComposeArgSelectorLiteral
			a.SelectorLiteral = p.parseSelector(v)
		}
	}
	return a
}

func fieldSet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

