package attrs

// Getter derives the value of a delegated attribute. It may read the
// attribute's declared dependencies through the transaction; reads outside the
// declared set fail with ErrScopeViolation and writes fail with
// ErrReentrantWrite.
type Getter func(txn *Txn) (any, error)

// Setter handles writes to a delegated attribute. It may read and write other
// attributes through the transaction, recursively driving the same machinery.
type Setter func(txn *Txn, value any) error

// Deleter handles deletes on a delegated attribute.
type Deleter func(txn *Txn) error

// AttributeSpec describes one named slot: defaults, behaviour flags, optional
// delegate functions and declared direct dependencies. Specs are assembled via
// NewSpec and validated (and frozen) when a Registry is constructed.
type AttributeSpec struct {
	name       string
	def        any
	hasDefault bool
	factory    func() any
	required   bool
	init       bool
	updatable  bool
	deletable  bool
	getter     Getter
	setter     Setter
	deleter    Deleter
	processor  Processor
	deps       []string
	order      int
}

// SpecOption configures an AttributeSpec on creation.
type SpecOption func(*AttributeSpec)

// WithDefault sets a literal default value substituted when no argument is
// supplied during initial resolution.
func WithDefault(value any) SpecOption {
	return func(s *AttributeSpec) {
		s.def = value
		s.hasDefault = true
	}
}

// WithFactory sets a default factory invoked per resolution when no argument
// is supplied. Mutually exclusive with WithDefault.
func WithFactory(factory func() any) SpecOption {
	return func(s *AttributeSpec) {
		s.factory = factory
	}
}

// Required marks the attribute as mandatory: initial resolution fails unless
// it resolves to a value, and it can never be deleted.
func Required() SpecOption {
	return func(s *AttributeSpec) {
		s.required = true
	}
}

// NoInit excludes the attribute from constructor-style argument mapping.
func NoInit() SpecOption {
	return func(s *AttributeSpec) {
		s.init = false
	}
}

// Updatable allows the attribute to be overwritten after it holds a value.
// Stored attributes default to write-once-then-frozen semantics.
func Updatable() SpecOption {
	return func(s *AttributeSpec) {
		s.updatable = true
	}
}

// Deletable allows the attribute to be deleted.
func Deletable() SpecOption {
	return func(s *AttributeSpec) {
		s.deletable = true
	}
}

// WithGetter marks the attribute as delegated: its value is derived by fn on
// demand rather than stored. deps lists the attributes fn is allowed to read.
func WithGetter(fn Getter, deps ...string) SpecOption {
	return func(s *AttributeSpec) {
		s.getter = fn
		s.deps = append([]string(nil), deps...)
	}
}

// WithSetter installs a write delegate. Requires a getter on the same spec.
func WithSetter(fn Setter) SpecOption {
	return func(s *AttributeSpec) {
		s.setter = fn
	}
}

// WithDeleter installs a delete delegate. Requires a getter on the same spec.
func WithDeleter(fn Deleter) SpecOption {
	return func(s *AttributeSpec) {
		s.deleter = fn
	}
}

// WithProcessor overrides the registry-level value processor for this
// attribute.
func WithProcessor(p Processor) SpecOption {
	return func(s *AttributeSpec) {
		s.processor = p
	}
}

// NewSpec builds an AttributeSpec. Validation is deferred to Registry
// construction so callers can assemble specs in any order.
func NewSpec(name string, opts ...SpecOption) AttributeSpec {
	spec := AttributeSpec{
		name: name,
		init: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&spec)
	}
	return spec
}

// Name returns the attribute name.
func (s *AttributeSpec) Name() string { return s.name }

// Required reports whether the attribute is mandatory.
func (s *AttributeSpec) Required() bool { return s.required }

// InInit reports whether the attribute participates in constructor-style
// argument mapping.
func (s *AttributeSpec) InInit() bool { return s.init }

// Updatable reports whether the attribute may be overwritten once set.
func (s *AttributeSpec) Updatable() bool { return s.updatable }

// Deletable reports whether the attribute may be deleted.
func (s *AttributeSpec) Deletable() bool { return s.deletable }

// Delegated reports whether the attribute's value is computed by a getter
// rather than stored.
func (s *AttributeSpec) Delegated() bool { return s.getter != nil }

// Dependencies returns the declared direct dependency names in declaration
// order. The returned slice is a copy.
func (s *AttributeSpec) Dependencies() []string {
	if len(s.deps) == 0 {
		return nil
	}
	return append([]string(nil), s.deps...)
}

// Order returns the declaration index assigned by the owning registry.
func (s *AttributeSpec) Order() int { return s.order }

// HasDefault reports whether the spec carries a literal default or a factory.
func (s *AttributeSpec) HasDefault() bool {
	return s.hasDefault || s.factory != nil
}

// DefaultValue produces the default, invoking the factory when configured.
// The boolean is false when the spec has neither.
func (s *AttributeSpec) DefaultValue() (any, bool) {
	if s.factory != nil {
		return s.factory(), true
	}
	if s.hasDefault {
		return s.def, true
	}
	return nil, false
}
