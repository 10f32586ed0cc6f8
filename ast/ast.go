// Package ast defines the in-memory grammar model of a page-object
// document: root metadata, the element tree, selectors, and composed
// methods. Every node carries the byte Span of the JSON fragment it was
// parsed from.
package ast

import "github.com/utamc/utamc/diag"

// Node is implemented by every grammar-model type that can be the subject
// of a diagnostic. It mirrors the role goa.design/goa/v3/eval.Expression's
// EvalName plays for the teacher's DSL expressions: a short, resilient
// description used to label diagnostics, not a rendering of the node
// itself.
type Node interface {
	Describe() string
	Span() diag.Span
}

// base is embedded by every node to provide the Span half of Node and a
// storage slot for it; Describe is implemented per concrete type since it
// needs type-specific context.
type base struct {
	span diag.Span
}

func (b base) Span() diag.Span { return b.span }

// SetSpan is used by the parser to attach source location after a node is
// constructed.
func (b *base) SetSpan(s diag.Span) { b.span = s }

// CapabilityTag names one of the fixed, closed capability tags an Element
// typed Capabilities([...]) may carry.
type CapabilityTag string

const (
	CapabilityActionable CapabilityTag = "actionable"
	CapabilityClickable  CapabilityTag = "clickable"
	CapabilityEditable   CapabilityTag = "editable"
	CapabilityDraggable  CapabilityTag = "draggable"
	CapabilityTouchable  CapabilityTag = "touchable"
)

// Description is either a free string or a structured block with a text
// array and an optional author.
type Description struct {
	base

	// Text holds the description. For a bare JSON string, Text has exactly
	// one element and Author is empty.
	Text   []string
	Author string
}

func (d *Description) Describe() string { return "description" }

// Shadow models a { elements: [...] } block. Nesting a Shadow under an
// Element means its children are located inside the element's shadow root.
type Shadow struct {
	base
	Elements []*Element
}

func (s *Shadow) Describe() string { return "shadow root" }

// ElementTypeKind discriminates the ElementType tagged union.
type ElementTypeKind int

const (
	ElementTypeInvalid ElementTypeKind = iota
	ElementTypeCapabilities
	ElementTypeCustomComponent
	ElementTypeContainer
	ElementTypeFrame
)

// ComponentRef is a parsed "pkg/pageObjects/seg1/.../name" custom-component
// reference.
type ComponentRef struct {
	Package  string
	Segments []string
	Name     string
	Raw      string
}

// ElementType is the tagged union described in spec.md §3.2.
type ElementType struct {
	base

	Kind         ElementTypeKind
	Capabilities []CapabilityTag // Kind == ElementTypeCapabilities
	Component    ComponentRef    // Kind == ElementTypeCustomComponent

	// RawText is kept for error messages when Kind == ElementTypeInvalid.
	RawText string
}

func (e *ElementType) Describe() string {
	switch e.Kind {
	case ElementTypeCapabilities:
		return "capability list element type"
	case ElementTypeCustomComponent:
		return "custom component element type"
	case ElementTypeContainer:
		return "container element type"
	case ElementTypeFrame:
		return "frame element type"
	default:
		return "element type"
	}
}

// SelectorArg is one named, typed placeholder argument of a Selector.
type SelectorArg struct {
	base
	Name string
	Type string // "string" | "number"
}

func (a *SelectorArg) Describe() string { return "selector argument " + a.Name }

// SelectorKind identifies which of the mutually exclusive locator strings a
// Selector carries.
type SelectorKind int

const (
	SelectorNone SelectorKind = iota
	SelectorCSS
	SelectorAccessID
	SelectorClassChain
	SelectorUIAutomator
)

// Selector locates zero-or-more elements relative to its containing scope.
type Selector struct {
	base

	Kind SelectorKind
	// Value is the concrete locator text for whichever Kind is set.
	Value     string
	ValueSpan diag.Span

	Args      []*SelectorArg
	ReturnAll bool
}

func (s *Selector) Describe() string { return "selector" }

// Element is one named node of the element tree, with its own nested
// elements and optional shadow-root children.
type Element struct {
	base

	Name        string
	Type        *ElementType
	Selector    *Selector
	Public      bool
	Nullable    bool
	GenerateWait bool
	Load        bool
	Shadow      *Shadow
	Elements    []*Element
	Filter      *Filter
	Description *Description

	NameSpan diag.Span
}

func (e *Element) Describe() string { return "element " + quoteName(e.Name) }

// Filter narrows a return_all selector's matches down to one.
type Filter struct {
	base

	Find      string
	FindSpan  diag.Span
	Match     *Matcher
	FindFirst bool
}

func (f *Filter) Describe() string { return "filter" }

// MatcherKind is the fixed, closed set of predicate kinds a Matcher may
// apply.
type MatcherKind string

const (
	MatcherIsTrue         MatcherKind = "isTrue"
	MatcherIsFalse        MatcherKind = "isFalse"
	MatcherStringEquals   MatcherKind = "stringEquals"
	MatcherStringContains MatcherKind = "stringContains"
	MatcherNotNull        MatcherKind = "notNull"
)

// Matcher is a typed predicate applied to a statement's result.
type Matcher struct {
	base

	Kind    MatcherKind
	Operand string // for stringEquals / stringContains; unused otherwise
}

func (m *Matcher) Describe() string { return "matcher " + string(m.Kind) }

// MethodArg is one named, typed parameter of a Method.
type MethodArg struct {
	base
	Name string
	Type string
}

func (a *MethodArg) Describe() string { return "method argument " + a.Name }

// ComposeArgKind discriminates ComposeArg's union.
type ComposeArgKind int

const (
	ComposeArgLiteralString ComposeArgKind = iota
	ComposeArgLiteralNumber
	ComposeArgLiteralBool
	ComposeArgReference
	ComposeArgSelectorLiteral
	ComposeArgPredicate
)

// ComposeArg is one argument passed to a compose statement's apply/element
// call.
type ComposeArg struct {
	base

	Kind ComposeArgKind

	// Literal value storage; exactly one is meaningful depending on Kind.
	StringValue string
	NumberValue float64
	BoolValue   bool

	// ComposeArgReference fields.
	RefName string
	RefType string

	// ComposeArgSelectorLiteral.
	SelectorLiteral *Selector

	// ComposeArgPredicate: a nested matcher block used as an argument, e.g.
	// for a predicate-accepting capability.
	Predicate *Matcher
}

func (a *ComposeArg) Describe() string { return "compose argument" }

// ComposeStatement is one step of a declarative method body. See spec.md
// §3.4 for the well-formedness matrix this type's fields encode.
type ComposeStatement struct {
	base

	Element       string
	ElementSpan   diag.Span
	Apply         string
	ApplySpan     diag.Span
	Args          []*ComposeArg
	Chain         bool
	ReturnType    string
	ReturnAll     bool
	Matcher       *Matcher
	ApplyExternal string
}

func (s *ComposeStatement) Describe() string {
	switch {
	case s.ApplyExternal != "":
		return "compose statement calling " + s.ApplyExternal
	case s.Element != "" && s.Apply != "":
		return "compose statement applying " + s.Apply + " to " + s.Element
	case s.Element != "":
		return "compose statement getting " + s.Element
	case s.Chain:
		return "chained compose statement applying " + s.Apply
	default:
		return "compose statement"
	}
}

// Method is a composed interaction method exposed on the page object.
type Method struct {
	base

	Name       string
	NameSpan   diag.Span
	Args       []*MethodArg
	Compose    []*ComposeStatement
	ReturnType string
	ReturnAll  bool
}

func (m *Method) Describe() string { return "method " + quoteName(m.Name) }

// Document is the root of the grammar model.
type Document struct {
	base

	Description *Description
	Root        bool
	Selector    *Selector
	ExposeRootElement bool
	ActionTypes []CapabilityTag
	Platform    string
	Implements  string
	IsInterface bool
	Shadow      *Shadow
	Elements    []*Element
	Methods     []*Method
	BeforeLoad  []*ComposeStatement
	Metadata    map[string]any

	// Origin names the Source this document was parsed from, used for
	// diagnostics and for deriving the generated type's name.
	Origin string
}

func (d *Document) Describe() string { return "document" }

func quoteName(s string) string {
	if s == "" {
		return "<unnamed>"
	}
	return "\"" + s + "\""
}
