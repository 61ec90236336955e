package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/bjaus/texfmt"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// coercingSource serves decoded row values converted to the type of the
// column that reads them. Keys without a known type are passed through.
type coercingSource struct {
	values map[string]any
	types  map[string]string
}

func (c coercingSource) Value(key string) (any, error) {
	v, ok := c.values[key]
	if !ok || v == nil {
		return nil, nil
	}
	return coerce(v, c.types[key])
}

// columnTypes adds the value keys of the columns of l reading from source
// to types. A key read as two different types is an error; fraction
// columns read the same value as decimal ones.
func columnTypes(types map[string]string, l *texfmt.Layout, source string) error {
	for i, def := range l.Columns() {
		if def.Source != source {
			continue
		}
		typ := def.Type
		if typ == texfmt.TypeFraction {
			typ = texfmt.TypeDecimal
		}
		if prev, ok := types[def.Value]; ok && prev != typ {
			return fmt.Errorf("layout %s column %d: %s %q is read as both %s and %s", l.ID(), i+1, source, def.Value, prev, typ)
		}
		types[def.Value] = typ
	}
	return nil
}

// rowTypes returns the row value types of every layout, keyed by layout id.
func rowTypes(layouts []*texfmt.Layout) (map[string]map[string]string, error) {
	all := make(map[string]map[string]string, len(layouts))
	for _, l := range layouts {
		types := make(map[string]string)
		if err := columnTypes(types, l, texfmt.SourceColumn); err != nil {
			return nil, err
		}
		all[l.ID()] = types
	}
	return all, nil
}

// coerceParams converts params in place to the types of the param columns
// of layouts. Params are shared, so every layout must agree on their types.
func coerceParams(params map[string]any, layouts []*texfmt.Layout) error {
	types := make(map[string]string)
	for _, l := range layouts {
		if err := columnTypes(types, l, texfmt.SourceParam); err != nil {
			return err
		}
	}
	for key, typ := range types {
		v, ok := params[key]
		if !ok || v == nil {
			continue
		}
		c, err := coerce(v, typ)
		if err != nil {
			return fmt.Errorf("param %q: %w", key, err)
		}
		params[key] = c
	}
	return nil
}

func coerce(v any, typ string) (any, error) {
	if n, ok := v.(json.Number); ok && typ != texfmt.TypeDecimal && typ != texfmt.TypeFraction {
		v = n.String()
	}
	switch typ {
	case texfmt.TypeText:
		return cast.ToStringE(v)
	case texfmt.TypeInteger:
		return toInt(v)
	case texfmt.TypeDecimal, texfmt.TypeFraction:
		return toDecimal(v)
	case texfmt.TypeTimestamp:
		return cast.ToTimeE(v)
	default:
		return v, nil
	}
}

// toInt parses strings as base 10; cast would read "010" as octal.
func toInt(v any) (int, error) {
	s, ok := v.(string)
	if !ok {
		return cast.ToIntE(v)
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("unable to cast %q to int: %w", s, err)
	}
	return n, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, nil
	case json.Number:
		return decimal.NewFromString(d.String())
	case float64:
		return decimal.NewFromFloat(d), nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}
