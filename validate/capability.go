package validate

import "github.com/utamc/utamc/ast"

// Action describes one capability action: its name and the declared type of
// each positional parameter ("string", "number", "bool", or "locator").
type Action struct {
	Name   string
	Params []string
}

// Capability is one entry of the closed table in spec.md §4.5.
type Capability struct {
	Tag     ast.CapabilityTag
	Extends []ast.CapabilityTag
	Actions []Action
}

// table is the fixed, closed capability enumeration. No runtime plugin
// surface extends it (spec.md §9).
var table = map[ast.CapabilityTag]Capability{
	ast.CapabilityActionable: {
		Tag: ast.CapabilityActionable,
		Actions: []Action{
			{Name: "focus"},
			{Name: "blur"},
			{Name: "scrollToCenter"},
			{Name: "scrollToTop"},
			{Name: "moveTo"},
		},
	},
	ast.CapabilityClickable: {
		Tag:     ast.CapabilityClickable,
		Extends: []ast.CapabilityTag{ast.CapabilityActionable},
		Actions: []Action{
			{Name: "click"},
			{Name: "doubleClick"},
			{Name: "rightClick"},
			{Name: "clickAndHold", Params: []string{"number"}},
		},
	},
	ast.CapabilityEditable: {
		Tag:     ast.CapabilityEditable,
		Extends: []ast.CapabilityTag{ast.CapabilityActionable},
		Actions: []Action{
			{Name: "clear"},
			{Name: "setText", Params: []string{"string"}},
			{Name: "clearAndType", Params: []string{"string"}},
			{Name: "press", Params: []string{"string"}},
		},
	},
	ast.CapabilityDraggable: {
		Tag:     ast.CapabilityDraggable,
		Extends: []ast.CapabilityTag{ast.CapabilityActionable},
		Actions: []Action{
			{Name: "dragAndDrop", Params: []string{"locator"}},
			{Name: "dragAndDropByOffset", Params: []string{"number", "number"}},
		},
	},
}

// basicActions are implicitly available on every Capabilities-typed
// element, regardless of its declared tags (spec.md §4.5: "Capabilities
// compose transitively ... plus basic").
var basicActions = []Action{
	{Name: "getAttribute", Params: []string{"string"}},
	{Name: "getText"},
	{Name: "isVisible"},
	{Name: "isPresent"},
	{Name: "isEnabled"},
	{Name: "containsElement", Params: []string{"locator", "bool"}},
}

// containerActions back ElementTypeContainer.
var containerActions = []Action{
	{Name: "load"},
	{Name: "loadAs", Params: []string{"string"}},
}

// frameActions back ElementTypeFrame.
var frameActions = []Action{
	{Name: "enter"},
}

// ResolvedActions returns the full, transitively-closed action set for an
// element typed with the given capability tags: basic plus every tag's own
// actions plus everything each tag extends.
func ResolvedActions(tags []ast.CapabilityTag) map[string]Action {
	out := make(map[string]Action)
	for _, a := range basicActions {
		out[a.Name] = a
	}
	var visit func(ast.CapabilityTag)
	visited := make(map[ast.CapabilityTag]bool)
	visit = func(tag ast.CapabilityTag) {
		if visited[tag] {
			return
		}
		visited[tag] = true
		cap, ok := table[tag]
		if !ok {
			return
		}
		for _, a := range cap.Actions {
			out[a.Name] = a
		}
		for _, ext := range cap.Extends {
			visit(ext)
		}
	}
	for _, t := range tags {
		visit(t)
	}
	return out
}

// ActionsFor returns the resolved action set for an ElementType, including
// Container/Frame's own fixed actions.
func ActionsFor(t *ast.ElementType) map[string]Action {
	switch t.Kind {
	case ast.ElementTypeCapabilities:
		return ResolvedActions(t.Capabilities)
	case ast.ElementTypeContainer:
		out := make(map[string]Action, len(containerActions))
		for _, a := range containerActions {
			out[a.Name] = a
		}
		return out
	case ast.ElementTypeFrame:
		out := make(map[string]Action, len(frameActions))
		for _, a := range frameActions {
			out[a.Name] = a
		}
		return out
	default:
		return nil
	}
}

// KnownCapabilityTag reports whether tag is one of the fixed tags a
// Capabilities element type may carry.
func KnownCapabilityTag(tag ast.CapabilityTag) bool {
	switch tag {
	case ast.CapabilityActionable, ast.CapabilityClickable, ast.CapabilityEditable,
		ast.CapabilityDraggable, ast.CapabilityTouchable:
		return true
	default:
		return false
	}
}

// ActionNamesForHelp returns, sorted by name, every action ActionsFor(t)
// resolves (basic actions and extended capabilities included), for building
// "available actions: ..." help strings deterministically.
func ActionNamesForHelp(t *ast.ElementType) []string {
	actions := ActionsFor(t)
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	// simple insertion sort keeps this deterministic without importing sort
	// for such a small, bounded slice (spec.md's Determinism rule applies
	// to generated code, not diagnostics, but stable help text is good
	// practice regardless).
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && names[j-1] > names[j]; j-- {
			names[j-1], names[j] = names[j], names[j-1]
		}
	}
	return names
}
