package diag

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBundleSortOrdersByPrimarySpanStart(t *testing.T) {
	src := NewSource("doc.json", `{"a":1,"b":2}`)
	b := NewBundle()
	b.Add(Errorf("utam::x", src, Span{Start: 8, End: 9}, "here", "second"))
	b.Add(Errorf("utam::y", src, Span{Start: 1, End: 2}, "here", "first"))
	b.Sort()

	require.Equal(t, "first", b.Diagnostics[0].Message)
	require.Equal(t, "second", b.Diagnostics[1].Message)
}

func TestBundleHasErrorsIgnoresNotes(t *testing.T) {
	src := NewSource("doc.json", `{}`)
	b := NewBundle()
	b.Add(Diagnostic{Code: "utam::unknown_field", Severity: SeverityNote, Message: "ignored field",
		Primary: LabeledSpan{Source: src, Span: Span{Start: 0, End: 1}, Label: "here"}})
	require.False(t, b.HasErrors())

	b.Add(Errorf("utam::parse_error", src, Span{Start: 0, End: 1}, "here", "bad"))
	require.True(t, b.HasErrors())
}

func TestRenderMachineShape(t *testing.T) {
	src := NewSource("doc.json", `{"x": 1}`)
	b := NewBundle()
	b.Add(Errorf("utam::unknown_action", src, Span{Start: 1, End: 2}, "label", "bad action").WithHelp("try clickable actions"))

	raw, err := b.RenderMachine()
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded, 1)
	require.Equal(t, "doc.json", decoded[0]["file"])
	require.Equal(t, "utam::unknown_action", decoded[0]["code"])
	require.Equal(t, "error", decoded[0]["severity"])
	require.Equal(t, "try clickable actions", decoded[0]["help"])
}

func TestRenderHumanUnderlinesPrimarySpan(t *testing.T) {
	src := NewSource("doc.json", "line one\nline two\n")
	b := NewBundle()
	b.Add(Errorf("utam::x", src, Span{Start: 9, End: 13}, "here", "oops"))

	out := b.RenderHuman()
	require.Contains(t, out, "doc.json:2:1")
	require.Contains(t, out, "line two")
	require.Contains(t, out, "^^^^")
}
