package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/namemap"
	"github.com/utamc/utamc/parse"
	"github.com/utamc/utamc/validate"
)

func generateFrom(t *testing.T, text, origin string) string {
	t.Helper()
	src := diag.NewSource(origin, text)
	doc, _, bundle := parse.Parse(src, parse.Options{})
	require.False(t, bundle.HasErrors())
	st, vBundle := validate.Validate(src, doc)
	require.False(t, vBundle.HasErrors(), "%s", vBundle.RenderHuman())
	nm := namemap.Build(doc)
	out, err := Generate(doc, st, nm)
	require.NoError(t, err)
	return out
}

func TestGenerateMinimalRootDocument(t *testing.T) {
	out := generateFrom(t, `{"root":true,"selector":{"css":".app"},"type":["clickable"]}`, "login.utam.json")
	require.Contains(t, out, "pub struct Login")
	require.Contains(t, out, `Locator::css(".app")`)
	require.Contains(t, out, "pub fn load(")
	require.Contains(t, out, "pub fn click(&self)")
}

func TestGenerateSelectorParamsPreserveOrder(t *testing.T) {
	out := generateFrom(t, `{
		"root": true,
		"selector": {"css": ".app"},
		"elements": [
			{"name": "row", "type": ["clickable"], "selector": {
				"css": ".row[data-id='%s']", "args": [{"name": "id", "type": "string"}]
			}}
		]
	}`, "rows.utam.json")
	require.Contains(t, out, `Locator::css(".row[data-id='%s']", id)`)
}

func TestGenerateDeterministicCapabilityOrder(t *testing.T) {
	out := generateFrom(t, `{
		"elements": [{"name": "x", "type": ["editable", "clickable"], "selector": {"css": ".x"}}]
	}`, "x.utam.json")
	require.Contains(t, out, "ClickableEditableElement")
}

func TestGenerateComposeMethodWithReference(t *testing.T) {
	out := generateFrom(t, `{
		"elements": [{"name": "username", "type": ["editable"], "selector": {"css": "#u"}}],
		"methods": [
			{"name": "enterName", "args": [{"name": "userName", "type": "string"}],
			 "compose": [{"element": "username", "apply": "setText", "args": [{"name": "userName", "type": "string"}]}]}
		]
	}`, "form.utam.json")
	require.Contains(t, out, "pub fn enter_name(&self, user_name: String)")
	require.Contains(t, out, "setText(user_name)")
}

func TestGenerateAccessorHasSelfReceiver(t *testing.T) {
	out := generateFrom(t, `{
		"elements": [{"name": "submitButton", "type": ["clickable"], "selector": {"css": ".submit"}}]
	}`, "form.utam.json")
	require.Contains(t, out, "pub fn get_submit_button(&self)")
}
