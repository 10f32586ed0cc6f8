// Package namemap implements the deterministic name mapping of spec.md
// §4.6: grammar names (camelCase, kebab-case paths) to target-code
// identifiers (snake_case methods, PascalCase types, module path
// segments). It builds directly on goa.design/goa/v3/codegen's case
// helpers, the way the teacher repository's codegen/naming/naming.go
// builds its own SanitizeToken/QueueName/Identifier helpers on top of
// codegen.SnakeCase.
package namemap

import (
	"strings"
	"unicode"

	"goa.design/goa/v3/codegen"
)

// ToSnakeCase converts an arbitrary grammar name (camelCase, kebab-case, or
// already snake_case) into lower snake_case, the convention spec.md §4.6
// requires for method and element-accessor identifiers.
func ToSnakeCase(name string) string {
	return codegen.SnakeCase(dashesToSpace(name))
}

// ToPascalCase converts a grammar name into PascalCase, the convention
// spec.md §4.6 requires for generated type names.
func ToPascalCase(name string) string {
	return codegen.Goify(dashesToSpace(name), true)
}

func dashesToSpace(name string) string {
	// codegen.SnakeCase/Goify already split on case boundaries; kebab-case
	// separators need to become word boundaries first so "my-widget"
	// doesn't collapse into "mywidget".
	return strings.ReplaceAll(name, "-", "_")
}

// AccessorName returns the generated accessor identifier for an element
// name: get_<snake_name>, or wait_for_<snake_name> when forWait is true
// (spec.md §4.6's generate_wait rule).
func AccessorName(elementName string, forWait bool) string {
	prefix := "get_"
	if forWait {
		prefix = "wait_for_"
	}
	return prefix + ToSnakeCase(elementName)
}

// TypeNameFromFileStem derives a document's generated type name from its
// origin file stem, e.g. "foo-bar.utam.json" -> "FooBar".
func TypeNameFromFileStem(origin string) string {
	stem := origin
	if i := strings.LastIndexByte(stem, '/'); i >= 0 {
		stem = stem[i+1:]
	}
	stem = strings.TrimSuffix(stem, ".json")
	stem = strings.TrimSuffix(stem, ".utam")
	return ToPascalCase(stem)
}

// ModulePath derives the target-language module path segments for a custom
// component reference's non-pageObjects path segments, e.g.
// "pkg/pageObjects/x/y/my-widget" -> ["pkg", "x", "y"].
func ModulePath(pkg string, segments []string) []string {
	out := make([]string, 0, 1+len(segments))
	out = append(out, ToSnakeCase(pkg))
	for _, s := range segments {
		if s == "pageObjects" {
			continue
		}
		out = append(out, ToSnakeCase(s))
	}
	return out
}

// FirstCharCoerce rewrites name so it begins with a legal identifier
// character ([A-Za-z_]), prefixing an underscore when name starts with a
// digit or other disallowed character. This is the "first-character
// coercion" spec.md §4.4 point 2 describes before identifier legality is
// checked.
func FirstCharCoerce(name string) string {
	if name == "" {
		return "_"
	}
	r := rune(name[0])
	if unicode.IsLetter(r) || r == '_' {
		return name
	}
	return "_" + name
}

// IsLegalIdentifier reports whether ident matches [A-Za-z_][A-Za-z0-9_]*.
func IsLegalIdentifier(ident string) bool {
	if ident == "" {
		return false
	}
	for i, r := range ident {
		switch {
		case r == '_':
		case unicode.IsLetter(r) && r <= unicode.MaxASCII:
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
