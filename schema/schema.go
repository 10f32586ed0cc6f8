// Package schema implements the schema validator of spec.md §4.3: a
// structural validation pass against a bundled JSON schema, run against the
// parsed JSON value tree before semantic validation. It is grounded on
// registry/service.go and codegen/agent/tests/tool_specs_schema_validation_test.go
// in the teacher repository, which compile and validate against
// github.com/santhosh-tekuri/jsonschema/v6 the same way: NewCompiler,
// AddResource, Compile, then Schema.Validate.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/utamc/utamc/diag"
	"github.com/utamc/utamc/jsonval"
)

const schemaResourceName = "utam-page-object.schema.json"

// documentSchema is the bundled JSON schema constant. It is intentionally
// coarse: it enforces the structural shape spec.md §3.2 describes (types of
// fields, the Selector/ElementType/Matcher closed enumerations) and defers
// cross-node invariants (uniqueness, reference resolution, capability
// compatibility) to package validate, exactly as spec.md §4.3/§4.4 split the
// work.
const documentSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://utamc.dev/schema/page-object.json",
  "type": "object",
  "properties": {
    "root": {"type": "boolean"},
    "isInterface": {"type": "boolean"},
    "exposeRootElement": {"type": "boolean"},
    "platform": {"type": "string"},
    "implements": {"type": "string"},
    "description": {
      "anyOf": [
        {"type": "string"},
        {
          "type": "object",
          "properties": {
            "text": {"type": "array", "items": {"type": "string"}},
            "author": {"type": "string"}
          },
          "required": ["text"]
        }
      ]
    },
    "selector": {"$ref": "#/$defs/selector"},
    "type": {"$ref": "#/$defs/elementType"},
    "shadow": {"$ref": "#/$defs/shadow"},
    "elements": {"type": "array", "items": {"$ref": "#/$defs/element"}},
    "methods": {"type": "array", "items": {"$ref": "#/$defs/method"}},
    "beforeLoad": {"type": "array", "items": {"$ref": "#/$defs/composeStatement"}},
    "metadata": {"type": "object"}
  },
  "$defs": {
    "selector": {
      "type": "object",
      "properties": {
        "css": {"type": "string"},
        "accessid": {"type": "string"},
        "classchain": {"type": "string"},
        "uiautomator": {"type": "string"},
        "returnAll": {"type": "boolean"},
        "args": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "type": {"enum": ["string", "number"]}},
            "required": ["name", "type"]
          }
        }
      }
    },
    "elementType": {
      "anyOf": [
        {"type": "array", "items": {"enum": ["actionable", "clickable", "editable", "draggable", "touchable"]}},
        {"type": "string"}
      ]
    },
    "shadow": {
      "type": "object",
      "properties": {"elements": {"type": "array", "items": {"$ref": "#/$defs/element"}}}
    },
    "element": {
      "type": "object",
      "properties": {
        "name": {"type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*$"},
        "type": {"$ref": "#/$defs/elementType"},
        "selector": {"$ref": "#/$defs/selector"},
        "public": {"type": "boolean"},
        "nullable": {"type": "boolean"},
        "generateWait": {"type": "boolean"},
        "load": {"type": "boolean"},
        "shadow": {"$ref": "#/$defs/shadow"},
        "elements": {"type": "array", "items": {"$ref": "#/$defs/element"}},
        "filter": {"$ref": "#/$defs/filter"},
        "description": {}
      },
      "required": ["name"]
    },
    "filter": {
      "type": "object",
      "properties": {
        "find": {"type": "string"},
        "match": {"$ref": "#/$defs/matcher"},
        "findFirst": {"type": "boolean"}
      }
    },
    "matcher": {
      "type": "object",
      "properties": {
        "kind": {"enum": ["isTrue", "isFalse", "stringEquals", "stringContains", "notNull"]},
        "operand": {"type": "string"}
      },
      "required": ["kind"]
    },
    "method": {
      "type": "object",
      "properties": {
        "name": {"type": "string"},
        "args": {
          "type": "array",
          "items": {
            "type": "object",
            "properties": {"name": {"type": "string"}, "type": {"type": "string"}},
            "required": ["name", "type"]
          }
        },
        "compose": {"type": "array", "items": {"$ref": "#/$defs/composeStatement"}},
        "returnType": {"type": "string"},
        "returnAll": {"type": "boolean"}
      },
      "required": ["name"]
    },
    "composeStatement": {
      "type": "object",
      "properties": {
        "element": {"type": "string"},
        "apply": {"type": "string"},
        "args": {"type": "array"},
        "chain": {"type": "boolean"},
        "returnType": {"type": "string"},
        "returnAll": {"type": "boolean"},
        "matcher": {"$ref": "#/$defs/matcher"},
        "applyExternal": {"type": "string"}
      }
    }
  }
}`

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var doc any
		if err := json.Unmarshal([]byte(documentSchema), &doc); err != nil {
			compileErr = fmt.Errorf("bundled schema is not valid JSON: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaResourceName, doc); err != nil {
			compileErr = fmt.Errorf("registering bundled schema: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaResourceName)
	})
	return compiled, compileErr
}

// Validate structurally validates raw (the jsonval.Value produced by
// package parse) against the bundled schema. A non-empty Bundle is
// terminal: per spec.md §4.8, semantic validation is skipped when this
// stage reports any error.
func Validate(src *diag.Source, raw *jsonval.Value) *diag.Bundle {
	bundle := diag.NewBundle()
	s, err := compiledSchema()
	if err != nil {
		// A broken bundled schema is an internal error, not a document
		// fault; it should be unreachable once the schema constant is
		// correct, but we surface it rather than panic.
		bundle.Addf("utam::internal", src, raw.Span, "document", "internal error compiling bundled schema: %s", err)
		return bundle
	}

	if err := s.Validate(raw.ToInterface()); err != nil {
		addValidationError(bundle, src, raw, err)
	}
	return bundle
}

// addValidationError flattens a (possibly nested) *jsonschema.ValidationError
// into one diagnostic per leaf cause, resolving each cause's instance
// location back to a Span via raw.AtPath.
func addValidationError(bundle *diag.Bundle, src *diag.Source, raw *jsonval.Value, err error) {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		bundle.Addf("utam::schema_validation", src, raw.Span, "document", "schema validation failed: %s", err)
		return
	}
	leaves := leafCauses(verr)
	for _, leaf := range leaves {
		path := strings.Join(leaf.InstanceLocation, "/")
		target := raw.AtPath(path)
		sp := raw.Span
		if target != nil {
			sp = target.Span
		}
		code := "utam::schema_" + keywordFromError(leaf)
		bundle.Addf(code, src, sp, "here", "schema violation at /%s: %s", path, leaf.Error())
	}
}

func leafCauses(v *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(v.Causes) == 0 {
		return []*jsonschema.ValidationError{v}
	}
	var out []*jsonschema.ValidationError
	for _, c := range v.Causes {
		out = append(out, leafCauses(c)...)
	}
	return out
}

func keywordFromError(v *jsonschema.ValidationError) string {
	if len(v.SchemaURL) == 0 {
		return "shape"
	}
	parts := strings.Split(v.SchemaURL, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "shape"
	}
	return last
}
