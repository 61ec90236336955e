package texfmt

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Built-in column types.
const (
	TypeText      = "text"
	TypeInteger   = "integer"
	TypeDecimal   = "decimal"
	TypeFraction  = "fraction"
	TypeTimestamp = "timestamp"
)

// Formatter renders a raw column value as text. Formatters are stateless
// and shared by every row and session; mutable helpers come from the
// [FormatContext].
type Formatter interface {
	// Accepts returns the type values must be assignable to. Nil accepts
	// any value.
	Accepts() reflect.Type
	// Format renders value, which is nil or assignable to Accepts.
	Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error)
}

// DefinitionValidator is implemented by formatters that can reject a column
// definition when its layout is registered, e.g. for a malformed pattern.
type DefinitionValidator interface {
	ValidateDefinition(def *ColumnDefinition) error
}

// CheckType reports an [ErrTypeMismatch] when value cannot be handled by f.
// Nil values are always accepted.
func CheckType(f Formatter, value any) error {
	want := f.Accepts()
	if value == nil || want == nil {
		return nil
	}
	if got := reflect.TypeOf(value); !got.AssignableTo(want) {
		return fmt.Errorf("%w: value type %s is not compatible with formatter %T (%s)", ErrTypeMismatch, got, f, want)
	}
	return nil
}

// FormatterFunc adapts a typed function into a [Formatter] accepting T.
// Nil values are rendered as the empty string without calling fn.
func FormatterFunc[T any](fn func(fc *FormatContext, v T, def *ColumnDefinition) (string, error)) Formatter {
	return funcFormatter[T](fn)
}

type funcFormatter[T any] func(fc *FormatContext, v T, def *ColumnDefinition) (string, error)

func (f funcFormatter[T]) Accepts() reflect.Type { return reflect.TypeFor[T]() }

func (f funcFormatter[T]) Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	return f(fc, value.(T), def)
}

// TextFormatter passes strings through unchanged.
type TextFormatter struct{}

func (TextFormatter) Accepts() reflect.Type { return reflect.TypeFor[string]() }

func (TextFormatter) Format(_ *FormatContext, value any, _ *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	return value.(string), nil
}

// IntegerFormatter renders ints in plain decimal, or through the column's
// number pattern when it has a format.
type IntegerFormatter struct{}

func (IntegerFormatter) Accepts() reflect.Type { return reflect.TypeFor[int]() }

func (IntegerFormatter) Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	i := value.(int)
	if def.Format == "" {
		return strconv.Itoa(i), nil
	}
	nf, err := fc.NumberFormat(def)
	if err != nil {
		return "", err
	}
	s, _ := nf.Format(decimal.NewFromInt(int64(i)))
	return s, nil
}

func (IntegerFormatter) ValidateDefinition(def *ColumnDefinition) error {
	if def.Format == "" {
		return nil
	}
	_, err := configureNumberFormat(NewNumberFormat(), def)
	return err
}

// DecimalFormatter renders exact decimals through the column's number
// pattern and separators.
type DecimalFormatter struct{}

func (DecimalFormatter) Accepts() reflect.Type { return reflect.TypeFor[decimal.Decimal]() }

func (DecimalFormatter) Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	nf, err := fc.NumberFormat(def)
	if err != nil {
		return "", err
	}
	s, _ := nf.Format(value.(decimal.Decimal))
	return s, nil
}

func (DecimalFormatter) ValidateDefinition(def *ColumnDefinition) error {
	_, err := configureNumberFormat(NewNumberFormat(), def)
	return err
}

// FractionFormatter renders only the fraction digits of an exact decimal,
// as [DecimalFormatter] would print them. It pairs with an integer column
// when amounts are split into separate fields.
type FractionFormatter struct{}

func (FractionFormatter) Accepts() reflect.Type { return reflect.TypeFor[decimal.Decimal]() }

func (FractionFormatter) Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	nf, err := fc.NumberFormat(def)
	if err != nil {
		return "", err
	}
	s, fracStart := nf.Format(value.(decimal.Decimal))
	return strings.TrimSuffix(s[fracStart:], nf.suffix), nil
}

func (FractionFormatter) ValidateDefinition(def *ColumnDefinition) error {
	_, err := configureNumberFormat(NewNumberFormat(), def)
	return err
}

// TimestampFormatter renders times with a strftime pattern.
type TimestampFormatter struct{}

func (TimestampFormatter) Accepts() reflect.Type { return reflect.TypeFor[time.Time]() }

func (TimestampFormatter) Format(fc *FormatContext, value any, def *ColumnDefinition) (string, error) {
	if value == nil {
		return "", nil
	}
	tf, err := fc.TimeFormat(def)
	if err != nil {
		return "", err
	}
	return tf.FormatString(value.(time.Time)), nil
}

func (TimestampFormatter) ValidateDefinition(def *ColumnDefinition) error {
	_, err := newTimeFormat(def.Format)
	return err
}

func defaultFormatters() map[string]Formatter {
	return map[string]Formatter{
		TypeText:      TextFormatter{},
		TypeInteger:   IntegerFormatter{},
		TypeDecimal:   DecimalFormatter{},
		TypeFraction:  FractionFormatter{},
		TypeTimestamp: TimestampFormatter{},
	}
}
