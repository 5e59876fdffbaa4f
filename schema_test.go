package attrs

import (
	"reflect"
	"testing"
)

func TestDefaultSchemaGenerator(t *testing.T) {
	registry, err := NewRegistry([]AttributeSpec{
		NewSpec("name", Required(), Updatable(), WithDefault("anon")),
		NewSpec("age", Deletable(), WithDefault(30)),
		NewSpec("display", NoInit(), WithGetter(constantGetter("d"), "name")),
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}

	document, err := registry.Schema(nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if document.Format != SchemaFormatDescriptors {
		t.Fatalf("unexpected format: %v", document.Format)
	}

	descriptors := document.Document.([]AttributeDescriptor)
	if len(descriptors) != 3 {
		t.Fatalf("expected 3 descriptors, got %d", len(descriptors))
	}

	name := descriptors[0]
	if name.Name != "name" || !name.Required || !name.Updatable || !name.HasDefault {
		t.Fatalf("unexpected name descriptor: %+v", name)
	}
	if name.Type != "string" {
		t.Fatalf("expected type inferred from default, got %q", name.Type)
	}

	age := descriptors[1]
	if !age.Deletable || age.Type != "int" {
		t.Fatalf("unexpected age descriptor: %+v", age)
	}

	display := descriptors[2]
	if !display.Delegated || display.Type != "any" {
		t.Fatalf("unexpected display descriptor: %+v", display)
	}
	if !reflect.DeepEqual(display.Dependencies, []string{"name"}) {
		t.Fatalf("unexpected dependencies: %v", display.Dependencies)
	}
}

func TestSchemaGeneratorNilRegistry(t *testing.T) {
	document, err := DefaultSchemaGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	descriptors := document.Document.([]AttributeDescriptor)
	if len(descriptors) != 0 {
		t.Fatalf("expected empty descriptor list, got %v", descriptors)
	}
}
