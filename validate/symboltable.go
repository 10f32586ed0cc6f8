package validate

import "github.com/utamc/utamc/ast"

// SymbolTable is the document-scoped symbol table the validator builds and
// the code generator later reads. It is frozen once semantic validation
// completes; nothing downstream mutates it (spec.md §3.3).
type SymbolTable struct {
	Elements map[string]*ast.Element
	Methods  map[string]*ast.Method

	// ElementPath records, for every named element, the chain of Shadow
	// nestings from the document root down to it, so the code generator
	// can flatten the shadow path per spec.md §4.7/§9 without re-walking
	// the tree.
	ElementPath map[string][]ShadowStep
}

// ShadowStep is one level of the flattened path to a named element: find
// Element, either from its parent's plain Element handle (FromShadow
// false) or from the ShadowRoot handle obtained by having just crossed into
// an ancestor's shadow root (FromShadow true). Flattening this at
// compile time, rather than generating nested closures per level, is the
// approach spec.md §9 ("Shadow path as data") prescribes.
type ShadowStep struct {
	Element    *ast.Element
	FromShadow bool
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		Elements:    make(map[string]*ast.Element),
		Methods:     make(map[string]*ast.Method),
		ElementPath: make(map[string][]ShadowStep),
	}
}
