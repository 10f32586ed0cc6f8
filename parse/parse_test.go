package parse

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/diag"
)

func TestParseMinimalRootDocument(t *testing.T) {
	src := diag.NewSource("minimal.utam.json", `{"root":true,"selector":{"css":".app"},"type":["clickable"]}`)
	doc, raw, bundle := Parse(src, Options{})
	require.False(t, bundle.HasErrors())
	require.NotNil(t, raw)
	require.True(t, doc.Root)
	require.Equal(t, ast.SelectorCSS, doc.Selector.Kind)
	require.Equal(t, ".app", doc.Selector.Value)
	require.Equal(t, []ast.CapabilityTag{ast.CapabilityClickable}, doc.ActionTypes)
}

func TestParseInvalidJSONYieldsSingleParseError(t *testing.T) {
	src := diag.NewSource("broken.utam.json", `{"root": tru}`)
	doc, raw, bundle := Parse(src, Options{})
	require.Nil(t, doc)
	require.Nil(t, raw)
	require.Len(t, bundle.Diagnostics, 1)
	require.Equal(t, "utam::parse_error", bundle.Diagnostics[0].Code)
}

func TestParseTopLevelMustBeObject(t *testing.T) {
	src := diag.NewSource("array.utam.json", `[1,2,3]`)
	doc, _, bundle := Parse(src, Options{})
	require.Nil(t, doc)
	require.True(t, bundle.HasErrors())
}

func TestParseUnknownFieldsToleratedSilentlyByDefault(t *testing.T) {
	src := diag.NewSource("extra.utam.json", `{"root":true,"selector":{"css":".x"},"futureField":42}`)
	doc, _, bundle := Parse(src, Options{})
	require.False(t, bundle.HasErrors())
	require.Empty(t, bundle.Diagnostics)
	require.True(t, doc.Root)
}

func TestParseUnknownFieldsNotedInStrictMode(t *testing.T) {
	src := diag.NewSource("extra.utam.json", `{"root":true,"selector":{"css":".x"},"futureField":42}`)
	_, _, bundle := Parse(src, Options{Strict: true})
	require.Len(t, bundle.Diagnostics, 1)
	require.Equal(t, diag.SeverityNote, bundle.Diagnostics[0].Severity)
	require.Equal(t, "utam::unknown_field", bundle.Diagnostics[0].Code)
}

func TestParseElementTypeDisambiguation(t *testing.T) {
	src := diag.NewSource("doc.utam.json", `{
		"elements": [
			{"name": "a", "type": ["clickable","editable"], "selector": {"css": ".a"}},
			{"name": "b", "type": "container"},
			{"name": "c", "type": "frame", "selector": {"css": "iframe"}},
			{"name": "d", "type": "pkg/pageObjects/widgets/my-widget", "selector": {"css": ".d"}},
			{"name": "e", "type": 42, "selector": {"css": ".e"}}
		]
	}`)
	doc, _, bundle := Parse(src, Options{})
	require.Len(t, doc.Elements, 5)
	require.Equal(t, ast.ElementTypeCapabilities, doc.Elements[0].Type.Kind)
	require.Equal(t, ast.ElementTypeContainer, doc.Elements[1].Type.Kind)
	require.Equal(t, ast.ElementTypeFrame, doc.Elements[2].Type.Kind)
	require.Equal(t, ast.ElementTypeCustomComponent, doc.Elements[3].Type.Kind)
	require.Equal(t, "pkg", doc.Elements[3].Type.Component.Package)
	require.Equal(t, "my-widget", doc.Elements[3].Type.Component.Name)
	require.Equal(t, ast.ElementTypeInvalid, doc.Elements[4].Type.Kind)

	var codes []string
	for _, d := range bundle.Diagnostics {
		codes = append(codes, d.Code)
	}
	require.Contains(t, codes, "utam::invalid_element_type")
}

func TestParseShadowNesting(t *testing.T) {
	src := diag.NewSource("doc.utam.json", `{
		"root": true,
		"selector": {"css": ".root"},
		"shadow": {
			"elements": [
				{"name": "inner", "selector": {"css": ".x"}, "shadow": {"elements": [
					{"name": "leaf", "selector": {"css": ".leaf"}}
				]}}
			]
		}
	}`)
	doc, _, bundle := Parse(src, Options{})
	require.False(t, bundle.HasErrors())
	require.Len(t, doc.Shadow.Elements, 1)
	inner := doc.Shadow.Elements[0]
	require.Equal(t, "inner", inner.Name)
	require.Len(t, inner.Shadow.Elements, 1)
	require.Equal(t, "leaf", inner.Shadow.Elements[0].Name)
}

func TestParseComposeArgKinds(t *testing.T) {
	src := diag.NewSource("doc.utam.json", `{
		"methods": [{
			"name": "submit",
			"args": [{"name": "text", "type": "string"}],
			"compose": [
				{"element": "input", "apply": "setText", "args": [{"name": "text", "type": "string"}]},
				{"apply": "click", "chain": true}
			]
		}]
	}`)
	doc, _, bundle := Parse(src, Options{})
	require.False(t, bundle.HasErrors())
	require.Len(t, doc.Methods, 1)
	m := doc.Methods[0]
	require.Len(t, m.Compose, 2)
	require.Equal(t, ast.ComposeArgReference, m.Compose[0].Args[0].Kind)
	require.True(t, m.Compose[1].Chain)
}
