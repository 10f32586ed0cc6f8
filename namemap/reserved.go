package namemap

// rustKeywords and goKeywords are the two target-language idioms spec.md
// §4.7/§5 draws its vocabulary from (traits, Result<T>/Option, async/await,
// drop semantics for Rust; Go-hosted tooling around it). spec.md §4.4 point
// 2 leaves "the documented target languages" open; SPEC_FULL.md fixes the
// set to these two.
var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true,
	"dyn": true, "else": true, "enum": true, "extern": true, "false": true,
	"fn": true, "for": true, "if": true, "impl": true, "in": true, "let": true,
	"loop": true, "match": true, "mod": true, "move": true, "mut": true,
	"pub": true, "ref": true, "return": true, "self": true, "Self": true,
	"static": true, "struct": true, "super": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true,
	"async": true, "await": true, "dyn_": true,
}

var goKeywords = map[string]bool{
	"break": true, "default": true, "func": true, "interface": true, "select": true,
	"case": true, "defer": true, "go": true, "map": true, "struct": true,
	"chan": true, "else": true, "goto": true, "package": true, "switch": true,
	"const": true, "fallthrough": true, "if": true, "range": true, "type": true,
	"continue": true, "for": true, "import": true, "return": true, "var": true,
}

// IsReservedIdentifier reports whether ident is a reserved keyword in any
// documented target language.
func IsReservedIdentifier(ident string) bool {
	return rustKeywords[ident] || goKeywords[ident]
}
