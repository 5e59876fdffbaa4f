package attrs

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownAttribute indicates a name that no spec in the registry claims.
	ErrUnknownAttribute = errors.New("attrs: unknown attribute")
	// ErrMissingRequired indicates a required attribute resolved to no value.
	ErrMissingRequired = errors.New("attrs: required attribute missing")
	// ErrDefaultAndFactory indicates a spec declared both a default value and
	// a default factory.
	ErrDefaultAndFactory = errors.New("attrs: default and factory are mutually exclusive")
	// ErrScopeViolation indicates a getter read an attribute outside its
	// declared dependencies.
	ErrScopeViolation = errors.New("attrs: dependency not declared")
	// ErrReentrantWrite indicates a write or delete attempted while a getter
	// delegate was executing.
	ErrReentrantWrite = errors.New("attrs: write during getter execution")
	// ErrReadOnlyAttribute indicates a write to a delegated attribute without
	// a setter, or to a frozen stored attribute that already holds a value.
	ErrReadOnlyAttribute = errors.New("attrs: attribute is read-only")
	// ErrNotDeletable indicates a delete on an attribute not flagged deletable.
	ErrNotDeletable = errors.New("attrs: attribute is not deletable")
	// ErrRequiredDeletion indicates a delete on a required attribute.
	ErrRequiredDeletion = errors.New("attrs: required attribute cannot be deleted")
	// ErrCyclicDependency indicates the declared dependency graph contains a
	// cycle. Registries reject cycles at construction.
	ErrCyclicDependency = errors.New("attrs: cyclic dependency")
	// ErrNoValue indicates the attribute holds no value anywhere in the
	// transaction, the state view, or its defaults.
	ErrNoValue = errors.New("attrs: no value")
	// ErrDuplicateArgument indicates an attribute received both a positional
	// and a keyword argument during initial resolution.
	ErrDuplicateArgument = errors.New("attrs: duplicate argument")
	// ErrTooManyPositional indicates more positional arguments than
	// init-eligible attributes.
	ErrTooManyPositional = errors.New("attrs: too many positional arguments")
	// ErrKeywordOnly indicates positional arguments supplied to a registry
	// configured as keyword-only.
	ErrKeywordOnly = errors.New("attrs: registry accepts keyword arguments only")
)

// AttributeError captures the attribute and operation alongside the
// originating error.
type AttributeError struct {
	Attribute string
	Op        string
	Err       error
}

func (e *AttributeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("attrs: %s %s: %v", e.Op, describeAttribute(e.Attribute), e.Err)
}

func (e *AttributeError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeAttribute(name string) string {
	if name == "" {
		return "attribute=<unnamed>"
	}
	return fmt.Sprintf("attribute=%q", name)
}

func wrapAttributeError(op, attribute string, err error) error {
	if err == nil {
		return nil
	}

	var attrErr *AttributeError
	if errors.As(err, &attrErr) {
		if attrErr.Op == "" {
			attrErr.Op = op
		}
		if attrErr.Attribute == "" {
			attrErr.Attribute = attribute
		}
		return err
	}

	return &AttributeError{
		Attribute: attribute,
		Op:        op,
		Err:       err,
	}
}
