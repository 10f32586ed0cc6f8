package validate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/utamc/utamc/ast"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/parse"
)

func parseDoc(t *testing.T, text string) (*ast.Document, *diag.Source) {
	t.Helper()
	src := diag.NewSource("test.utam.json", text)
	doc, _, bundle := parse.Parse(src, parse.Options{})
	require.False(t, bundle.HasErrors(), "unexpected parse errors: %s", bundle.RenderHuman())
	return doc, src
}

func TestCollectDetectsDuplicateElementNames(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [
			{"name": "submit", "type": "container"},
			{"name": "submit", "type": "frame"}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Contains(t, bundle.Diagnostics[0].Code, "duplicate_element")
}

func TestIdentifierPassFlagsReservedKeyword(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [{"name": "type", "type": "container"}]
	}`)
	_, bundle := Validate(src, doc)
	found := false
	for _, d := range bundle.Diagnostics {
		if d.Code == "utam::reserved_identifier" {
			found = true
		}
	}
	require.True(t, found)
}

func TestSelectorArityMismatchFlagged(t *testing.T) {
	doc, src := parseDoc(t, `{
		"root": true,
		"selector": {"css": ".x[data-id='%s']", "args": []}
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::selector_params", bundle.Diagnostics[0].Code)
}

func TestSelectorTypeMismatchFlagged(t *testing.T) {
	doc, src := parseDoc(t, `{
		"root": true,
		"selector": {"css": ".x[data-id='%d']", "args": [{"name": "id", "type": "string"}]}
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::selector_type", bundle.Diagnostics[0].Code)
}

func TestMethodResolutionFlagsUnknownElement(t *testing.T) {
	doc, src := parseDoc(t, `{
		"methods": [
			{"name": "clickIt", "compose": [{"element": "missing", "apply": "click"}]}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::unknown_element", bundle.Diagnostics[0].Code)
}

func TestMethodResolutionFlagsUnknownActionWithHelp(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [{"name": "submit", "type": ["clickable"]}],
		"methods": [
			{"name": "clickIt", "compose": [{"element": "submit", "apply": "setText", "args": ["x"]}]}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	var found diag.Diagnostic
	for _, d := range bundle.Diagnostics {
		if d.Code == "utam::unknown_action" {
			found = d
		}
	}
	require.NotEmpty(t, found.Code)
	require.Contains(t, found.Help, "click")
}

func TestMethodResolutionAcceptsValidClickChain(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [{"name": "submit", "type": ["clickable"]}],
		"methods": [
			{"name": "clickIt", "compose": [{"element": "submit", "apply": "click"}]}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.False(t, bundle.HasErrors())
}

func TestChainWithoutPreviousFlagged(t *testing.T) {
	doc, src := parseDoc(t, `{
		"methods": [
			{"name": "m", "compose": [{"apply": "click", "chain": true}]}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::chain_requires_previous", bundle.Diagnostics[0].Code)
}

func TestFrameCannotReturnAll(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [{"name": "f", "type": "frame", "selector": {"css": ".f", "returnAll": true}}]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::frame_return_all", bundle.Diagnostics[0].Code)
}

func TestContainerWithoutCapabilitiesValidates(t *testing.T) {
	doc, src := parseDoc(t, `{
		"elements": [{"name": "c", "type": "container"}]
	}`)
	_, bundle := Validate(src, doc)
	require.False(t, bundle.HasErrors())
}

func TestInterfaceMethodMayNotHaveComposeBody(t *testing.T) {
	doc, src := parseDoc(t, `{
		"isInterface": true,
		"methods": [{"name": "m", "compose": [{"apply": "click", "element": "x"}]}]
	}`)
	_, bundle := Validate(src, doc)
	require.True(t, bundle.HasErrors())
	require.Equal(t, "utam::compose_shape", bundle.Diagnostics[0].Code)
}

func TestValidDocumentProducesNoErrors(t *testing.T) {
	doc, src := parseDoc(t, `{
		"root": true,
		"selector": {"css": "body"},
		"elements": [
			{"name": "username", "type": ["editable"], "selector": {"css": "#user"}},
			{"name": "submitButton", "type": ["clickable"], "selector": {"css": "#submit"}, "generateWait": true}
		],
		"methods": [
			{
				"name": "login",
				"args": [{"name": "userName", "type": "string"}],
				"compose": [
					{"element": "username", "apply": "setText", "args": [{"name": "userName", "type": "string"}]},
					{"element": "submitButton", "apply": "click"}
				]
			}
		]
	}`)
	_, bundle := Validate(src, doc)
	require.False(t, bundle.HasErrors(), "unexpected: %s", bundle.RenderHuman())
}
