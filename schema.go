package attrs

import "fmt"

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flattened attribute descriptors.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatOpenAPI represents OpenAPI-compatible JSON Schema documents.
	SchemaFormatOpenAPI SchemaFormat = "openapi"
)

// SchemaDocument encapsulates a generated schema output alongside its format
// identifier. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Document any
}

// SchemaGenerator transforms a registry into a schema document. All
// implementations MUST be safe for concurrent use and handle nil registries
// by returning an empty schema document.
type SchemaGenerator interface {
	Generate(registry *Registry) (SchemaDocument, error)
}

// AttributeDescriptor describes one registered attribute for schema output.
type AttributeDescriptor struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Required     bool     `json:"required,omitempty"`
	Updatable    bool     `json:"updatable,omitempty"`
	Deletable    bool     `json:"deletable,omitempty"`
	Delegated    bool     `json:"delegated,omitempty"`
	HasDefault   bool     `json:"has_default,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// DefaultSchemaGenerator returns the built-in descriptor-based generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(registry *Registry) (SchemaDocument, error) {
	descriptors := []AttributeDescriptor{}
	if registry != nil {
		for _, spec := range registry.Specs() {
			descriptors = append(descriptors, AttributeDescriptor{
				Name:         spec.Name(),
				Type:         attributeTypeName(spec),
				Required:     spec.Required(),
				Updatable:    spec.Updatable(),
				Deletable:    spec.Deletable(),
				Delegated:    spec.Delegated(),
				HasDefault:   spec.HasDefault(),
				Dependencies: spec.Dependencies(),
			})
		}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// attributeTypeName infers a type label from the default value when one
// exists; delegated and defaultless attributes are dynamic.
func attributeTypeName(spec *AttributeSpec) string {
	if spec.Delegated() {
		return "any"
	}
	if value, ok := spec.DefaultValue(); ok && value != nil {
		return fmt.Sprintf("%T", value)
	}
	return "any"
}

// Schema generates a schema document for the registry using generator, or the
// default descriptor generator when generator is nil.
func (r *Registry) Schema(generator SchemaGenerator) (SchemaDocument, error) {
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(r)
}
