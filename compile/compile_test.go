package compile

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"goa.design/clue/log"
)

func TestCompileMinimalRootDocument(t *testing.T) {
	res := Compile(`{"root":true,"selector":{"css":".app"},"type":["clickable"]}`, "login.utam.json", Options{})
	require.True(t, res.OK(), "unexpected diagnostics: %v", res.Diagnostics)
	require.Contains(t, res.Text, "pub struct Login")
	require.Contains(t, res.Text, "pub fn load(")
	require.Contains(t, res.Text, "pub fn wait_for_load(")
	require.Contains(t, res.Text, "pub fn click(&self)")
}

func TestCompileInvalidJSONYieldsParseError(t *testing.T) {
	res := Compile(`{not json`, "bad.utam.json", Options{})
	require.False(t, res.OK())
	require.Equal(t, "utam::parse_error", res.Diagnostics.Diagnostics[0].Code)
}

func TestCompileUnknownActionYieldsHelp(t *testing.T) {
	res := Compile(`{
		"elements": [{"name": "x", "type": ["editable"], "selector": {"css": ".x"}}],
		"methods": [{"name": "m", "compose": [{"element": "x", "apply": "click"}]}]
	}`, "x.utam.json", Options{})
	require.False(t, res.OK())
	found := false
	for _, d := range res.Diagnostics.Diagnostics {
		if d.Code == "utam::unknown_action" {
			found = true
			require.NotEmpty(t, d.Help)
		}
	}
	require.True(t, found)
}

func TestCompileIsDeterministic(t *testing.T) {
	text := `{"root":true,"selector":{"css":".app"},
		"elements":[{"name":"submitButton","type":["clickable"],"selector":{"css":"#submit"}}]}`
	a := Compile(text, "a.utam.json", Options{})
	b := Compile(text, "a.utam.json", Options{})
	require.True(t, a.OK())
	require.Equal(t, a.Text, b.Text)
}

func TestCompileUnknownFieldsToleratedByDefault(t *testing.T) {
	withExtra := `{"root":true,"selector":{"css":".app"},"bogusField":42}`
	withoutExtra := `{"root":true,"selector":{"css":".app"}}`
	a := Compile(withoutExtra, "a.utam.json", Options{})
	b := Compile(withExtra, "a.utam.json", Options{})
	require.True(t, a.OK())
	require.True(t, b.OK())
	require.Equal(t, a.Text, b.Text)
}

func TestCompileShadowTraversalFlattensPath(t *testing.T) {
	res := Compile(`{
		"root": true,
		"selector": {"css": ".app"},
		"shadow": {"elements": [
			{"name": "inner", "selector": {"css": ".x"}, "shadow": {"elements": [
				{"name": "leaf", "selector": {"css": ".leaf"}}
			]}}
		]}
	}`, "shadow.utam.json", Options{})
	require.True(t, res.OK(), "unexpected: %v", res.Diagnostics)
	require.Contains(t, res.Text, "get_leaf")
	require.True(t, strings.Count(res.Text, "get_shadow_root") >= 2)
}

func TestCompileTracesStagesWhenContextProvided(t *testing.T) {
	ctx := log.Context(context.Background(), log.WithFormat(log.FormatJSON), log.WithDebug())
	res := Compile(`{"root":true,"selector":{"css":".app"}}`, "a.utam.json", Options{Context: ctx})
	require.True(t, res.OK())
}
