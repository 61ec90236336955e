package texfmt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic error handling.
var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrState         = errors.New("invalid session state")
	ErrResolution    = errors.New("value not resolved")
	ErrTypeMismatch  = errors.New("type mismatch")
	ErrOverflow      = errors.New("value overflows column")
	ErrUnknownLayout = errors.New("unknown layout")
)

// LayoutError locates a failure inside a layout. Column is 1-based; zero
// means the failure concerns the layout as a whole.
type LayoutError struct {
	Layout string
	Column int
	Err    error
}

func (e *LayoutError) Error() string {
	if e.Column == 0 {
		return fmt.Sprintf("layout '%s': %v", e.Layout, e.Err)
	}
	return fmt.Sprintf("column %d of layout '%s': %v", e.Column, e.Layout, e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

func layoutErr(label string, column int, kind error, format string, args ...any) error {
	return &LayoutError{
		Layout: label,
		Column: column,
		Err:    fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}

// Structure names a row assembly algorithm.
type Structure string

const (
	StructurePositional Structure = "positional"
	StructureSeparator  Structure = "separator"
)

// String returns the structure name.
func (s Structure) String() string { return string(s) }

// ParseStructure parses a structure attribute. Surrounding spaces are
// ignored; an empty string selects positional.
func ParseStructure(s string) (Structure, error) {
	switch strings.TrimSpace(s) {
	case "", string(StructurePositional):
		return StructurePositional, nil
	case string(StructureSeparator):
		return StructureSeparator, nil
	default:
		return "", fmt.Errorf("%w: unknown structure %q", ErrConfiguration, s)
	}
}

// Alignment controls where a value sits inside its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// String returns the alignment name.
func (a Alignment) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// ParseAlignment parses "left" or "right", case-insensitively.
func ParseAlignment(s string) (Alignment, error) {
	switch {
	case strings.EqualFold(s, "left"):
		return AlignLeft, nil
	case strings.EqualFold(s, "right"):
		return AlignRight, nil
	default:
		return AlignLeft, fmt.Errorf("%w: invalid align %q, options are 'left' or 'right'", ErrConfiguration, s)
	}
}
