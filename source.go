package texfmt

import (
	"fmt"
	"time"
)

// Built-in value source names. Layout column tags select a source by name.
const (
	SourceColumn    = "column"
	SourceFixed     = "fixed"
	SourceParam     = "param"
	SourceCounter   = "counter"
	SourceTimestamp = "timestamp"
)

// reservedSources can never be registered by the user.
var reservedSources = map[string]bool{SourceColumn: true}

// ValueSource resolves a column's lookup key to a raw value.
type ValueSource interface {
	Value(key string) (any, error)
}

// ValueFunc adapts a function into a [ValueSource].
type ValueFunc func(key string) (any, error)

func (f ValueFunc) Value(key string) (any, error) { return f(key) }

// MapSource resolves keys from a map. Missing keys resolve to nil.
type MapSource map[string]any

func (m MapSource) Value(key string) (any, error) { return m[key], nil }

// ParamSource resolves keys from a static parameter table that must hold
// every key a layout references.
type ParamSource map[string]any

func (p ParamSource) Value(key string) (any, error) {
	v, ok := p[key]
	if !ok {
		return nil, fmt.Errorf("%w: entry %q not defined in params", ErrResolution, key)
	}
	return v, nil
}

// FixedSource returns the lookup key itself.
type FixedSource struct{}

func (FixedSource) Value(key string) (any, error) { return key, nil }

// TimeSource returns the same instant for every key.
type TimeSource time.Time

func (t TimeSource) Value(string) (any, error) { return time.Time(t), nil }

// counterSource leaves counter columns empty until a sink stamps them.
type counterSource struct{}

func (counterSource) Value(string) (any, error) { return nil, nil }

// Extractors maps lookup keys to accessors of T. Build it once per struct
// shape and call [Extractors.Source] for every exported value.
type Extractors[T any] map[string]func(T) any

// Source returns a [ValueSource] reading from v. Unknown keys fail with
// [ErrResolution].
func (e Extractors[T]) Source(v T) ValueSource {
	return ValueFunc(func(key string) (any, error) {
		fn, ok := e[key]
		if !ok {
			return nil, fmt.Errorf("%w: no extractor for %q on %T", ErrResolution, key, v)
		}
		return fn(v), nil
	})
}
