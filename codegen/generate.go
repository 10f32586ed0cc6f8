package codegen

import (
	"fmt"

	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/namemap"
	"github.com/utamc/utamc/validate"
)

// canonicalCapabilityOrder fixes the iteration order spec.md §4.7's
// Determinism rule requires for "unordered sets (e.g. capability unions)":
// sorted by this list's order, not declaration order, not map iteration.
var canonicalCapabilityOrder = []ast.CapabilityTag{
	ast.CapabilityActionable, ast.CapabilityClickable, ast.CapabilityEditable,
	ast.CapabilityDraggable, ast.CapabilityTouchable,
}

// Generate lowers doc into an abstract code tree and renders it to
// target-language source text. doc and st are assumed already validated
// (spec.md §4.8 point 5: codegen assumes a valid AST); a non-nil error
// return corresponds to utam::internal, an invariant violation that should
// be unreachable given prior validation.
func Generate(doc *ast.Document, st *validate.SymbolTable, nm *namemap.Mapper) (string, error) {
	t := &TypeDecl{Name: nm.TypeName}
	t.Fields = []Field{{Name: "root", Type: "Element"}, {Name: "driver", Type: "Driver"}}

	t.Methods = append(t.Methods, fromElementMethod())
	if doc.Root {
		loadMethod, err := buildLoadMethod(doc, nm)
		if err != nil {
			return "", err
		}
		t.Methods = append(t.Methods, loadMethod)
		t.Methods = append(t.Methods, waitForLoadMethod())
	}

	t.Methods = append(t.Methods, buildRootCapabilityMethods(doc)...)

	accessors, err := buildAccessors(doc, st, nm)
	if err != nil {
		return "", err
	}
	t.Methods = append(t.Methods, accessors...)

	for _, m := range doc.Methods {
		decl, err := buildMethod(m, st, nm)
		if err != nil {
			return "", err
		}
		t.Methods = append(t.Methods, decl)
	}

	f := &File{
		Comment: fmt.Sprintf("Generated page object for %s. Do not edit by hand.", doc.Origin),
		Type:    t,
	}
	return Render(f), nil
}

func fromElementMethod() MethodDecl {
	return MethodDecl{
		Doc:        "Wrap an already-located element handle.",
		Name:       "from_element",
		Args:       []Field{{Name: "handle", Type: "Element"}, {Name: "driver", Type: "Driver"}},
		ReturnType: "Self",
		Body: []Stmt{
			{Kind: StmtReturn, ReturnExpr: "Self { root: handle, driver }"},
		},
	}
}

func buildLoadMethod(doc *ast.Document, nm *namemap.Mapper) (MethodDecl, error) {
	sel, err := renderSelectorExpr(doc.Selector, "driver")
	if err != nil {
		return MethodDecl{}, err
	}
	body := []Stmt{
		{Kind: StmtLet, LetName: "root", Expr: awaitCall("driver", "find", sel)},
	}
	if len(doc.BeforeLoad) > 0 {
		// before_load's override point: invoked after the root is found,
		// per spec.md §4.7 point 6. The statements are interpreted against
		// `root` the same way a method's compose statements are.
		stmts, err := buildComposeChain(doc.BeforeLoad, "root", nil, nm)
		if err != nil {
			return MethodDecl{}, err
		}
		body = append(body, stmts...)
	}
	body = append(body, Stmt{Kind: StmtReturn, ReturnExpr: "Ok(Self { root, driver })"})
	return MethodDecl{
		Doc:        "Locate the root element and construct the page object.",
		Name:       "load",
		Args:       []Field{{Name: "driver", Type: "Driver"}},
		ReturnType: "Result<Self>",
		Async:      true,
		Body:       body,
	}, nil
}

func waitForLoadMethod() MethodDecl {
	return MethodDecl{
		Doc: "Poll load() until it succeeds or timeout elapses (default poll " +
			"interval 500ms, per spec's polling contract).",
		Name:       "wait_for_load",
		Args:       []Field{{Name: "driver", Type: "Driver"}, {Name: "timeout", Type: "Duration"}},
		ReturnType: "Result<Self>",
		Async:      true,
		Body: []Stmt{
			{Kind: StmtLet, LetName: "deadline", Expr: "Instant::now() + timeout"},
			{
				Kind: StmtLoop,
				LoopBody: []Stmt{
					{Kind: StmtIf, Cond: "let Ok(page) = Self::load(driver.clone()).await", Then: []Stmt{
						{Kind: StmtReturn, ReturnExpr: "return Ok(page)"},
					}},
					{Kind: StmtIf, Cond: "Instant::now() >= deadline", Then: []Stmt{
						{Kind: StmtReturn, ReturnExpr: `return Err(Timeout { condition: "load" }.into())`},
					}},
					{Kind: StmtExpr, Plain: "sleep(Duration::from_millis(500)).await"},
				},
			},
		},
	}
}

// buildRootCapabilityMethods emits the document's own root-level capability
// actions directly on the generated type (spec.md §8 scenario 1: "type
// carries a click() capability"). A document's top-level "type" declares
// what the root element itself supports, exactly like an Element's "type"
// does for a child (spec.md §4.5); interface documents get signatures only
// elsewhere, so they carry no bodies here either.
func buildRootCapabilityMethods(doc *ast.Document) []MethodDecl {
	if len(doc.ActionTypes) == 0 || doc.IsInterface {
		return nil
	}
	t := &ast.ElementType{Kind: ast.ElementTypeCapabilities, Capabilities: doc.ActionTypes}
	actions := validate.ActionsFor(t)
	names := validate.ActionNamesForHelp(t)
	out := make([]MethodDecl, 0, len(names))
	for _, name := range names {
		out = append(out, buildCapabilityMethod(name, actions[name]))
	}
	return out
}

func buildCapabilityMethod(actionName string, a validate.Action) MethodDecl {
	paramNames := actionArgNames(actionName)
	args := make([]Field, 0, len(a.Params))
	argExprs := make([]string, 0, len(a.Params))
	for i, p := range a.Params {
		name := fmt.Sprintf("arg%d", i+1)
		if i < len(paramNames) {
			name = paramNames[i]
		}
		args = append(args, Field{Name: name, Type: targetType(p)})
		argExprs = append(argExprs, name)
	}
	return MethodDecl{
		Name:       namemap.ToSnakeCase(actionName),
		Receiver:   "&self",
		Args:       args,
		ReturnType: "Result<" + capabilityActionReturnType(actionName) + ">",
		Async:      true,
		Body: []Stmt{
			{Kind: StmtLet, LetName: "result", Expr: awaitCall("self.root", actionName, argExprs...)},
			{Kind: StmtReturn, ReturnExpr: "Ok(result)"},
		},
	}
}

// actionArgNames names a fixed capability action's positional parameters,
// following spec.md §4.5's own parenthetical naming (e.g. "clickAndHold
// (millis)", "dragAndDropByOffset(x,y)").
func actionArgNames(actionName string) []string {
	switch actionName {
	case "getAttribute":
		return []string{"name"}
	case "clickAndHold":
		return []string{"millis"}
	case "setText", "clearAndType":
		return []string{"text"}
	case "press":
		return []string{"key_name"}
	case "dragAndDrop":
		return []string{"target"}
	case "dragAndDropByOffset":
		return []string{"x", "y"}
	case "containsElement":
		return []string{"locator", "pierce"}
	case "loadAs":
		return []string{"type_name"}
	default:
		return nil
	}
}

// capabilityActionReturnType gives the query actions of spec.md §4.5's basic
// row their declared result type; every other capability action is a bare
// suspendable operation with no meaningful value.
func capabilityActionReturnType(actionName string) string {
	switch actionName {
	case "getText", "getAttribute":
		return "String"
	case "isVisible", "isPresent", "isEnabled", "containsElement":
		return "bool"
	default:
		return "()"
	}
}

func buildAccessors(doc *ast.Document, st *validate.SymbolTable, nm *namemap.Mapper) ([]MethodDecl, error) {
	var out []MethodDecl
	var walk func(els []*ast.Element) error
	walk = func(els []*ast.Element) error {
		for _, e := range els {
			if e.Name == "" {
				continue
			}
			m, err := buildAccessor(e, st, nm)
			if err != nil {
				return err
			}
			out = append(out, m)
			if e.GenerateWait {
				out = append(out, buildWaiter(e, nm))
			}
			if e.Shadow != nil {
				if err := walk(e.Shadow.Elements); err != nil {
					return err
				}
			}
			if err := walk(e.Elements); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(doc.Elements); err != nil {
		return nil, err
	}
	if doc.Shadow != nil {
		if err := walk(doc.Shadow.Elements); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// buildAccessor walks the element's flattened shadow path (symbol-table
// ElementPath, per spec.md §9 "shadow path as data") into a straight-line
// sequence of find/get_shadow_root calls, avoiding nested closures.
func buildAccessor(e *ast.Element, st *validate.SymbolTable, nm *namemap.Mapper) (MethodDecl, error) {
	path := st.ElementPath[e.Name]
	body := []Stmt{{Kind: StmtLet, LetName: "scope", Expr: "self.root.clone()"}}
	for i, step := range path {
		if step.FromShadow {
			body = append(body, Stmt{Kind: StmtLet, LetName: "scope", Expr: awaitCall("scope", "get_shadow_root")})
		}
		if i == len(path)-1 {
			sel, err := renderSelectorExpr(step.Element.Selector, "scope")
			if err != nil {
				return MethodDecl{}, err
			}
			method := "find"
			if step.Element.Selector != nil && step.Element.Selector.ReturnAll {
				method = "find_all"
			}
			if step.Element.Filter != nil && step.Element.Filter.FindFirst {
				method = "find"
			}
			body = append(body, Stmt{Kind: StmtLet, LetName: "located", Expr: awaitCall("scope", method, sel)})
		} else {
			sel, err := renderSelectorExpr(step.Element.Selector, "scope")
			if err != nil {
				return MethodDecl{}, err
			}
			body = append(body, Stmt{Kind: StmtLet, LetName: "scope", Expr: awaitCall("scope", "find", sel)})
		}
	}
	retType := capabilityWrapperName(e.Type)
	if e.Nullable {
		retType = "Option<" + retType + ">"
	}
	body = append(body, Stmt{Kind: StmtReturn, ReturnExpr: Expr(wrapCall(retType, "located", e.Nullable))})
	return MethodDecl{
		Name:       nm.Accessor(e.Name),
		Receiver:   "&self",
		ReturnType: retType,
		Async:      true,
		Body:       body,
	}, nil
}

func wrapCall(wrapperType, varName string, nullable bool) string {
	if nullable {
		return fmt.Sprintf("%s.map(%s::from_element)", varName, wrapperType)
	}
	return fmt.Sprintf("%s::from_element(%s)", wrapperType, varName)
}

func buildWaiter(e *ast.Element, nm *namemap.Mapper) MethodDecl {
	return MethodDecl{
		Name:       nm.Waiter(e.Name),
		Receiver:   "&self",
		ReturnType: "Result<()>",
		Async:      true,
		Body: []Stmt{
			{Kind: StmtExpr, Plain: Expr(awaitCall("self", "wait_for",
				fmt.Sprintf(`|| self.%s().is_ok()`, nm.Accessor(e.Name)), "timeout", "500", `"`+e.Name+` present"`))},
			{Kind: StmtReturn, ReturnExpr: "Ok(())"},
		},
	}
}

// capabilityWrapperName picks the smallest wrapper type name that satisfies
// the element's declared type, per spec.md §9's "Capability union via
// polymorphism" strategy.
func capabilityWrapperName(t *ast.ElementType) string {
	if t == nil {
		return "Element"
	}
	switch t.Kind {
	case ast.ElementTypeContainer:
		return "Container"
	case ast.ElementTypeFrame:
		return "Frame"
	case ast.ElementTypeCustomComponent:
		return namemap.ToPascalCase(t.Component.Name)
	case ast.ElementTypeCapabilities:
		return capabilitiesWrapperName(t.Capabilities)
	default:
		return "Element"
	}
}

func capabilitiesWrapperName(tags []ast.CapabilityTag) string {
	present := make(map[ast.CapabilityTag]bool, len(tags))
	for _, t := range tags {
		present[t] = true
	}
	name := ""
	for _, canon := range canonicalCapabilityOrder {
		if present[canon] {
			name += namemap.ToPascalCase(string(canon))
		}
	}
	if name == "" {
		return "BasicElement"
	}
	return name + "Element"
}

func buildMethod(m *ast.Method, st *validate.SymbolTable, nm *namemap.Mapper) (MethodDecl, error) {
	args := make([]Field, 0, len(m.Args))
	for _, a := range m.Args {
		args = append(args, Field{Name: nm.Arg(m.Name, a.Name), Type: targetType(a.Type)})
	}
	body, err := buildComposeChain(m.Compose, "", m, nm)
	if err != nil {
		return MethodDecl{}, err
	}
	retType := targetType(m.ReturnType)
	return MethodDecl{
		Name:       nm.Method(m.Name),
		Receiver:   "&self",
		Args:       args,
		ReturnType: retType,
		Async:      true,
		Body:       body,
	}, nil
}

// buildComposeChain interprets a compose statement list into a straight-line
// sequence of statements, carrying a single typed "last result" local
// between them (spec.md §4.7 point 5). receiverOverride, when non-empty, is
// used as the base scope instead of "self" (for before_load, which runs
// against the just-located root rather than an already-constructed Self).
func buildComposeChain(stmts []*ast.ComposeStatement, receiverOverride string, owner *ast.Method, nm *namemap.Mapper) ([]Stmt, error) {
	var out []Stmt
	last := ""
	for i, stmt := range stmts {
		expr, err := renderComposeExpr(stmt, receiverOverride, last, owner, nm)
		if err != nil {
			return nil, err
		}
		letName := fmt.Sprintf("step_%d", i)
		out = append(out, Stmt{Kind: StmtLet, LetName: letName, Expr: expr})
		last = letName
	}
	return out, nil
}

func renderComposeExpr(stmt *ast.ComposeStatement, receiverOverride string, last string, owner *ast.Method, nm *namemap.Mapper) (Expr, error) {
	if stmt.ApplyExternal != "" {
		return awaitCall("self", stmt.ApplyExternal, renderArgs(stmt.Args, owner, nm)...), nil
	}

	var receiver string
	switch {
	case stmt.Chain:
		receiver = last
	case stmt.Element != "":
		receiver = receiverOverride
		if receiver == "" {
			receiver = "self." + nm.Accessor(stmt.Element) + "()"
		}
	default:
		receiver = receiverOverride
	}

	var e Expr
	switch {
	case stmt.Apply != "":
		e = awaitCall(receiver, stmt.Apply, renderArgs(stmt.Args, owner, nm)...)
	default:
		e = Expr(receiver)
	}
	if stmt.Matcher != nil {
		e = renderMatcherExpr(stmt.Matcher, e)
	}
	return e, nil
}

func renderArgs(args []*ast.ComposeArg, owner *ast.Method, nm *namemap.Mapper) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		switch a.Kind {
		case ast.ComposeArgLiteralString:
			out = append(out, fmt.Sprintf("%q", a.StringValue))
		case ast.ComposeArgLiteralNumber:
			out = append(out, formatNumber(a.NumberValue))
		case ast.ComposeArgLiteralBool:
			out = append(out, fmt.Sprintf("%t", a.BoolValue))
		case ast.ComposeArgReference:
			if owner != nil {
				out = append(out, nm.Arg(owner.Name, a.RefName))
			} else {
				out = append(out, namemap.ToSnakeCase(a.RefName))
			}
		case ast.ComposeArgSelectorLiteral:
			sel, err := renderSelectorExpr(a.SelectorLiteral, "self.root")
			if err == nil {
				out = append(out, string(sel))
			}
		case ast.ComposeArgPredicate:
			out = append(out, string(renderMatcherExpr(a.Predicate, "value")))
		}
	}
	return out
}

func renderMatcherExpr(m *ast.Matcher, subject Expr) Expr {
	switch m.Kind {
	case ast.MatcherIsTrue:
		return subject
	case ast.MatcherIsFalse:
		return Expr("!(" + string(subject) + ")")
	case ast.MatcherStringEquals:
		return Expr(fmt.Sprintf("(%s) == %q", subject, m.Operand))
	case ast.MatcherStringContains:
		return Expr(fmt.Sprintf("(%s).contains(%q)", subject, m.Operand))
	case ast.MatcherNotNull:
		return Expr("(" + string(subject) + ").is_some()")
	default:
		return subject
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

func targetType(t string) string {
	switch t {
	case "":
		return ""
	case "string":
		return "String"
	case "number":
		return "f64"
	case "bool", "boolean":
		return "bool"
	default:
		return namemap.ToPascalCase(t)
	}
}

// renderSelectorExpr renders a locator-construction expression against
// scope. Placeholder shape is preserved byte-for-byte (spec.md §4.7
// "Selector rendering"); arguments are interpolated in declaration order.
func renderSelectorExpr(s *ast.Selector, scope string) (Expr, error) {
	if s == nil {
		return Expr(scope + `.locator("")`), nil
	}
	kind, err := selectorKindName(s.Kind)
	if err != nil {
		return "", err
	}
	args := make([]string, 0, len(s.Args)+1)
	args = append(args, fmt.Sprintf("%q", s.Value))
	for _, a := range s.Args {
		args = append(args, namemap.ToSnakeCase(a.Name))
	}
	call := fmt.Sprintf("Locator::%s(%s)", kind, joinArgs(args))
	return Expr(call), nil
}

func selectorKindName(k ast.SelectorKind) (string, error) {
	switch k {
	case ast.SelectorCSS:
		return "css", nil
	case ast.SelectorAccessID:
		return "access_id", nil
	case ast.SelectorClassChain:
		return "class_chain", nil
	case ast.SelectorUIAutomator:
		return "ui_automator", nil
	default:
		return "", fmt.Errorf("utam::internal: selector has no kind set")
	}
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
