package openapi

type generatorConfig struct {
	title       string
	description string
	extensions  bool
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		title:      "Attribute Schema",
		extensions: true,
	}
}

// GeneratorOption configures the OpenAPI generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithTitle overrides the document title. Empty strings retain the existing
// value.
func WithTitle(title string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title == "" {
			return
		}
		cfg.title = title
	}
}

// WithDescription sets the optional document description.
func WithDescription(description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.description = description
	}
}

// WithExtensions toggles the x-delegated/x-dependencies/x-updatable vendor
// extensions (default: on).
func WithExtensions(include bool) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.extensions = include
	}
}
