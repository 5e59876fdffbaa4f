// Package openapi generates OpenAPI-compatible JSON Schema documents from an
// attribute registry. Stored attribute types are inferred from their default
// values; delegated attributes surface their declared dependencies through
// vendor extensions.
package openapi

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	attrs "github.com/goliatone/go-attrs"
)

type generator struct {
	cfg generatorConfig
}

// NewGenerator constructs an OpenAPI-compatible schema generator.
func NewGenerator(opts ...GeneratorOption) attrs.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{cfg: cfg}
}

func (g generator) Generate(registry *attrs.Registry) (attrs.SchemaDocument, error) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
	document := map[string]any{
		"title":  g.cfg.title,
		"schema": schema,
	}
	if g.cfg.description != "" {
		document["description"] = g.cfg.description
	}
	if registry == nil {
		return attrs.SchemaDocument{
			Format:   attrs.SchemaFormatOpenAPI,
			Document: document,
		}, nil
	}

	properties := schema["properties"].(map[string]any)
	var required []string
	for _, spec := range registry.Specs() {
		property, err := g.propertyFor(spec)
		if err != nil {
			return attrs.SchemaDocument{}, err
		}
		properties[spec.Name()] = property
		if spec.Required() {
			required = append(required, spec.Name())
		}
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}

	return attrs.SchemaDocument{
		Format:   attrs.SchemaFormatOpenAPI,
		Document: document,
	}, nil
}

func (g generator) propertyFor(spec *attrs.AttributeSpec) (map[string]any, error) {
	property := map[string]any{}

	if spec.Delegated() {
		if g.cfg.extensions {
			property["x-delegated"] = true
			if deps := spec.Dependencies(); len(deps) > 0 {
				property["x-dependencies"] = deps
			}
		}
		return property, nil
	}

	if value, ok := spec.DefaultValue(); ok {
		typed, err := schemaForValue(reflect.ValueOf(value))
		if err != nil {
			return nil, err
		}
		for key, entry := range typed {
			property[key] = entry
		}
		property["default"] = value
	}
	if g.cfg.extensions {
		if spec.Updatable() {
			property["x-updatable"] = true
		}
		if spec.Deletable() {
			property["x-deletable"] = true
		}
	}
	return property, nil
}

func schemaForValue(rv reflect.Value) (map[string]any, error) {
	if !rv.IsValid() {
		return map[string]any{"type": "null"}, nil
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return map[string]any{"type": "null"}, nil
		}
		return schemaForValue(rv.Elem())
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return map[string]any{"type": "integer"}, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Struct:
		if rv.Type() == reflect.TypeOf(time.Time{}) {
			return map[string]any{
				"type":   "string",
				"format": "date-time",
			}, nil
		}
		return map[string]any{"type": "object"}, nil
	case reflect.Map:
		return map[string]any{"type": "object"}, nil
	case reflect.Slice, reflect.Array:
		return map[string]any{"type": "array"}, nil
	default:
		return map[string]any{
			"type":   "string",
			"format": fmt.Sprintf("go:%s", rv.Type().String()),
		}, nil
	}
}
