package texfmt

import (
	"fmt"

	"github.com/lestrrat-go/strftime"
)

// DefaultTimestampPattern is applied to timestamp columns without a format.
const DefaultTimestampPattern = "%Y-%m-%d %H:%M:%S"

// FormatContext memoizes configured formatters per column definition. It
// owns a prototype [NumberFormat] that is cloned the first time a
// definition is formatted; later rows reuse the configured clone. A
// FormatContext is not safe for concurrent use. Each [Session] owns one,
// so sessions running on different goroutines never share a formatter.
type FormatContext struct {
	base    *NumberFormat
	numbers map[*ColumnDefinition]*NumberFormat
	times   map[*ColumnDefinition]*strftime.Strftime
}

// NewFormatContext returns an empty context with the default prototype.
func NewFormatContext() *FormatContext {
	return &FormatContext{
		base:    NewNumberFormat(),
		numbers: make(map[*ColumnDefinition]*NumberFormat),
		times:   make(map[*ColumnDefinition]*strftime.Strftime),
	}
}

// NumberFormat returns the number format configured for def: the prototype
// with def's separators and pattern applied.
func (fc *FormatContext) NumberFormat(def *ColumnDefinition) (*NumberFormat, error) {
	if nf, ok := fc.numbers[def]; ok {
		return nf, nil
	}
	nf, err := configureNumberFormat(fc.base, def)
	if err != nil {
		return nil, err
	}
	fc.numbers[def] = nf
	return nf, nil
}

// TimeFormat returns the strftime formatter for def's pattern.
func (fc *FormatContext) TimeFormat(def *ColumnDefinition) (*strftime.Strftime, error) {
	if tf, ok := fc.times[def]; ok {
		return tf, nil
	}
	tf, err := newTimeFormat(def.Format)
	if err != nil {
		return nil, err
	}
	fc.times[def] = tf
	return tf, nil
}

func configureNumberFormat(base *NumberFormat, def *ColumnDefinition) (*NumberFormat, error) {
	nf := base.Clone()
	nf.SetSymbols(def.DecimalSeparator, def.GroupingSeparator)
	if def.Format != "" {
		if err := nf.ApplyPattern(def.Format); err != nil {
			return nil, err
		}
	}
	return nf, nil
}

func newTimeFormat(pattern string) (*strftime.Strftime, error) {
	if pattern == "" {
		pattern = DefaultTimestampPattern
	}
	tf, err := strftime.New(pattern, strftime.WithMilliseconds('f'))
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp pattern %q is invalid: %s", ErrConfiguration, pattern, err)
	}
	return tf, nil
}
