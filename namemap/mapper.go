package namemap

import "github.com/utamc/utamc/ast"

// Mapper is the frozen grammar-name -> target-identifier map produced once
// per compile, read by the code generator and never mutated again (spec.md
// §3.3: "Name-mapper output is a map grammar-name -> target-identifier,
// frozen before codegen reads it").
type Mapper struct {
	TypeName string

	accessors map[string]string // element name -> getter identifier
	waiters   map[string]string // element name -> wait_for_ identifier
	methods   map[string]string // method name -> snake_case identifier
	args      map[string]string // "methodName.argName" -> snake_case identifier
}

// Build computes the frozen name map for doc. Collision detection
// (spec.md §4.6's "identifier collision policy") has already run during
// semantic validation; Build assumes doc is valid and simply computes
// identifiers deterministically from its names.
func Build(doc *ast.Document) *Mapper {
	m := &Mapper{
		TypeName:  TypeNameFromFileStem(doc.Origin),
		accessors: make(map[string]string),
		waiters:   make(map[string]string),
		methods:   make(map[string]string),
		args:      make(map[string]string),
	}
	var walk func(els []*ast.Element)
	walk = func(els []*ast.Element) {
		for _, e := range els {
			m.accessors[e.Name] = AccessorName(e.Name, false)
			if e.GenerateWait {
				m.waiters[e.Name] = AccessorName(e.Name, true)
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
	for _, meth := range doc.Methods {
		m.methods[meth.Name] = ToSnakeCase(meth.Name)
		for _, a := range meth.Args {
			m.args[meth.Name+"."+a.Name] = ToSnakeCase(a.Name)
		}
	}
	return m
}

// Accessor returns the getter identifier for a named element.
func (m *Mapper) Accessor(elementName string) string { return m.accessors[elementName] }

// Waiter returns the wait_for_ identifier for a named element, or "" if the
// element did not request generate_wait.
func (m *Mapper) Waiter(elementName string) string { return m.waiters[elementName] }

// Method returns the snake_case identifier for a named method.
func (m *Mapper) Method(methodName string) string { return m.methods[methodName] }

// Arg returns the snake_case identifier for a method argument.
func (m *Mapper) Arg(methodName, argName string) string { return m.args[methodName+"."+argName] }

// AllAccessorIdentifiers returns every accessor/waiter identifier this
// Mapper has assigned, for collision auditing by callers outside
// package validate (e.g. tests exercising spec.md §8's "Name mapping
// injection" property).
func (m *Mapper) AllAccessorIdentifiers() []string {
	out := make([]string, 0, len(m.accessors)+len(m.waiters))
	for _, v := range m.accessors {
		out = append(out, v)
	}
	for _, v := range m.waiters {
		out = append(out, v)
	}
	return out
}
