package attrs

type jsDelegateConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSDelegateOption configures a JS-backed delegate.
type JSDelegateOption func(*jsDelegateConfig)

// JSWithProgramCache applies a ProgramCache to the JS delegate.
func JSWithProgramCache(cache ProgramCache) JSDelegateOption {
	return func(cfg *jsDelegateConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS delegate.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSDelegateOption {
	return func(cfg *jsDelegateConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

func applyJSDelegateOptions(opts []JSDelegateOption) jsDelegateConfig {
	cfg := jsDelegateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
