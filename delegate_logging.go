package attrs

import "time"

// DelegateLogEvent describes a delegate invocation for logging.
type DelegateLogEvent struct {
	Attribute string
	Op        string
	Duration  time.Duration
	Err       error
}

// DelegateLogger records delegate invocations.
type DelegateLogger interface {
	LogDelegate(DelegateLogEvent)
}

// DelegateLoggerFunc adapts a function to DelegateLogger.
type DelegateLoggerFunc func(DelegateLogEvent)

// LogDelegate implements DelegateLogger.
func (f DelegateLoggerFunc) LogDelegate(event DelegateLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopDelegateLogger struct{}

func (noopDelegateLogger) LogDelegate(DelegateLogEvent) {}

// WithDelegateLogger attaches a delegate logger to the registry.
func WithDelegateLogger(logger DelegateLogger) Option {
	return func(cfg *registryConfig) {
		if logger == nil {
			cfg.logger = noopDelegateLogger{}
			return
		}
		cfg.logger = logger
	}
}
