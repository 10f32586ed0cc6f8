package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/jsonval"
)

func TestValidateAcceptsWellFormedDocument(t *testing.T) {
	text := `{"root":true,"selector":{"css":".app"},"type":["clickable"]}`
	src := diag.NewSource("t.utam.json", text)
	raw, err := jsonval.Parse(text)
	require.NoError(t, err)
	bundle := Validate(src, raw)
	require.False(t, bundle.HasErrors())
}

func TestValidateRejectsBadElementName(t *testing.T) {
	text := `{"elements":[{"name":"1bad"}]}`
	src := diag.NewSource("t.utam.json", text)
	raw, err := jsonval.Parse(text)
	require.NoError(t, err)
	bundle := Validate(src, raw)
	require.True(t, bundle.HasErrors())
}

func TestValidateRejectsBadMatcherKind(t *testing.T) {
	text := `{"elements":[{"name":"x","filter":{"match":{"kind":"bogus"}}}]}`
	src := diag.NewSource("t.utam.json", text)
	raw, err := jsonval.Parse(text)
	require.NoError(t, err)
	bundle := Validate(src, raw)
	require.True(t, bundle.HasErrors())
}
