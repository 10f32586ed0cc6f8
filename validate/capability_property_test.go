package validate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/utamc/utamc/ast"
)

var allCapabilityTags = []ast.CapabilityTag{
	ast.CapabilityActionable, ast.CapabilityClickable, ast.CapabilityEditable, ast.CapabilityDraggable,
}

// TestValidatorCompletenessOnCapabilityProperty checks one direction of
// spec.md §8's "Validator completeness on capability": for any list of
// capability tags, the resolved action set contains every basic action,
// every tag's own actions, and the actions of every tag it extends. It does
// not check that the set holds nothing else.
func TestValidatorCompletenessOnCapabilityProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tagGen := gen.OneConstOf(
		ast.CapabilityActionable, ast.CapabilityClickable, ast.CapabilityEditable, ast.CapabilityDraggable,
	)

	properties.Property("resolved action set contains every table action of its tags", prop.ForAll(
		func(tags []ast.CapabilityTag) bool {
			resolved := ResolvedActions(tags)
			for _, a := range resolved {
				if a.Name == "" {
					return false
				}
			}
			// basic actions must always be present regardless of tags.
			for _, b := range basicActions {
				if _, ok := resolved[b.Name]; !ok {
					return false
				}
			}
			// every tag's own action, and everything it transitively
			// extends, must be present.
			for _, tag := range tags {
				cap, ok := table[tag]
				if !ok {
					continue
				}
				for _, a := range cap.Actions {
					if _, ok := resolved[a.Name]; !ok {
						return false
					}
				}
				for _, ext := range cap.Extends {
					for _, a := range table[ext].Actions {
						if _, ok := resolved[a.Name]; !ok {
							return false
						}
					}
				}
			}
			return true
		},
		gen.SliceOf(tagGen),
	))

	properties.TestingRun(t)
}

// TestSelectorArityLawProperty checks the placeholder scanning that
// spec.md §8's "Selector arity law" rests on: for any sequence of %s/%d
// placeholders, placeholderKinds reports each one's kind, in order, and the
// count matches the number of arguments built alongside them. It does not
// call validateSelector.
func TestSelectorArityLawProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("placeholder kinds are recovered in order", prop.ForAll(
		func(placeholders []byte) bool {
			value := ""
			args := make([]*ast.SelectorArg, 0, len(placeholders))
			for i, k := range placeholders {
				if k == 's' {
					value += "%s"
					args = append(args, &ast.SelectorArg{Name: "a", Type: "string"})
				} else {
					value += "%d"
					args = append(args, &ast.SelectorArg{Name: "a", Type: "number"})
				}
				_ = i
			}
			sel := &ast.Selector{Kind: ast.SelectorCSS, Value: value, Args: args}
			got := placeholderKinds(sel.Value)
			if len(got) != len(placeholders) {
				return false
			}
			for i, k := range got {
				if k != placeholders[i] {
					return false
				}
			}
			return len(sel.Args) == len(placeholders)
		},
		gen.SliceOf(gen.OneConstOf(byte('s'), byte('d'))),
	))

	properties.TestingRun(t)
}
