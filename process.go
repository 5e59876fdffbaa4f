package attrs

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-attrs/internal/hydrate"
)

var (
	// ErrConversion indicates the processor could not coerce the raw value.
	ErrConversion = errors.New("attrs: conversion failed")
	// ErrValidation indicates the coerced value failed validation.
	ErrValidation = errors.New("attrs: validation failed")
	// ErrInvalidType indicates the raw value has a type the processor does
	// not handle.
	ErrInvalidType = errors.New("attrs: invalid type")
)

// ConversionError wraps err as a conversion failure.
func ConversionError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrConversion, err)
}

// ValidationError wraps err as a validation failure.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}

// InvalidTypeError reports that value's type is not acceptable.
func InvalidTypeError(value any) error {
	return fmt.Errorf("%w: %T", ErrInvalidType, value)
}

// Processor converts and validates a raw value before the engine caches it.
// The engine invokes it on every direct write and on every delegated-getter
// result, wrapping failures with the attribute name.
type Processor interface {
	Process(raw any) (any, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(raw any) (any, error)

// Process dispatches to the underlying function.
func (f ProcessorFunc) Process(raw any) (any, error) {
	if f == nil {
		return raw, nil
	}
	return f(raw)
}

type passthroughProcessor struct{}

func (passthroughProcessor) Process(raw any) (any, error) {
	return raw, nil
}

// DefaultProcessor returns the built-in processor, which accepts values
// unchanged.
func DefaultProcessor() Processor {
	return passthroughProcessor{}
}

// TypedProcessor coerces map payloads into T through the hydrate decoder and
// passes values that already are T. Anything else fails with ErrInvalidType.
func TypedProcessor[T any](opts ...hydrate.DecoderOption[T]) Processor {
	decoder := hydrate.NewDecoder(opts...)
	return ProcessorFunc(func(raw any) (any, error) {
		switch typed := raw.(type) {
		case T:
			return typed, nil
		case map[string]any:
			value, err := decoder.Decode(hydrate.Context{}, typed)
			if err != nil {
				return nil, ConversionError(err)
			}
			return value, nil
		default:
			return nil, InvalidTypeError(raw)
		}
	})
}

// ValidatedProcessor runs validate after next (or the default processor when
// next is nil) and maps failures to ErrValidation.
func ValidatedProcessor(next Processor, validate func(value any) error) Processor {
	if next == nil {
		next = DefaultProcessor()
	}
	return ProcessorFunc(func(raw any) (any, error) {
		value, err := next.Process(raw)
		if err != nil {
			return nil, err
		}
		if validate != nil {
			if err := validate(value); err != nil {
				return nil, ValidationError(err)
			}
		}
		return value, nil
	})
}
