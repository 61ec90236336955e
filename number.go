package texfmt

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultNumberPattern is applied to numeric columns without a format.
const DefaultNumberPattern = "#,##0.###"

// NumberFormat renders decimals according to a pattern such as "#,##0.00".
// A NumberFormat is mutable and must not be shared between goroutines; a
// [FormatContext] hands out one configured copy per column definition.
type NumberFormat struct {
	prefix, suffix string
	multiplier     int64
	minInt         int
	grouping       int
	minFrac        int
	maxFrac        int
	decimalSep     rune
	groupingSep    rune
}

// NewNumberFormat returns a format using [DefaultNumberPattern] with '.' as
// decimal separator and ',' as grouping separator.
func NewNumberFormat() *NumberFormat {
	nf := &NumberFormat{decimalSep: '.', groupingSep: ','}
	if err := nf.ApplyPattern(DefaultNumberPattern); err != nil {
		panic(err)
	}
	return nf
}

// Clone returns an independent copy.
func (nf *NumberFormat) Clone() *NumberFormat {
	c := *nf
	return &c
}

// SetSymbols overrides the separators. A zero rune keeps the current one.
func (nf *NumberFormat) SetSymbols(decimalSep, groupingSep rune) {
	if decimalSep != 0 {
		nf.decimalSep = decimalSep
	}
	if groupingSep != 0 {
		nf.groupingSep = groupingSep
	}
}

// ApplyPattern parses pattern and replaces the current settings. Symbols
// are kept. On error the format is left unchanged.
func (nf *NumberFormat) ApplyPattern(pattern string) error {
	p, err := parseNumberPattern(pattern)
	if err != nil {
		return err
	}
	p.decimalSep, p.groupingSep = nf.decimalSep, nf.groupingSep
	*nf = p
	return nil
}

func isPatternChar(r rune) bool {
	return r == '#' || r == '0' || r == ',' || r == '.'
}

func parseNumberPattern(pattern string) (NumberFormat, error) {
	var nf NumberFormat
	// The negative sub-pattern only matters for prefixes we do not support.
	positive, _, _ := strings.Cut(pattern, ";")

	start := strings.IndexFunc(positive, isPatternChar)
	if start < 0 {
		return nf, fmt.Errorf("%w: number pattern %q has no digits", ErrConfiguration, pattern)
	}
	end := start
	for end < len(positive) && isPatternChar(rune(positive[end])) {
		end++
	}
	nf.prefix, nf.suffix = positive[:start], positive[end:]
	affixes := nf.prefix + nf.suffix
	percent, perMille := strings.ContainsRune(affixes, '%'), strings.ContainsRune(affixes, '‰')
	switch {
	case percent && perMille:
		return nf, fmt.Errorf("%w: number pattern %q has both '%%' and '‰'", ErrConfiguration, pattern)
	case percent:
		nf.multiplier = 100
	case perMille:
		nf.multiplier = 1000
	}
	body := positive[start:end]

	intPart, fracPart, _ := strings.Cut(body, ".")
	if strings.Contains(fracPart, ".") {
		return nf, fmt.Errorf("%w: number pattern %q has multiple decimal points", ErrConfiguration, pattern)
	}

	seenZero := false
	lastComma := -1
	digits := 0
	for _, r := range intPart {
		switch r {
		case '#':
			if seenZero {
				return nf, fmt.Errorf("%w: number pattern %q has '#' after '0'", ErrConfiguration, pattern)
			}
			digits++
		case '0':
			seenZero = true
			nf.minInt++
			digits++
		case ',':
			lastComma = digits
		}
	}
	if lastComma >= 0 {
		nf.grouping = digits - lastComma
		if nf.grouping == 0 {
			return nf, fmt.Errorf("%w: number pattern %q ends with a grouping separator", ErrConfiguration, pattern)
		}
	}

	seenHash := false
	for _, r := range fracPart {
		switch r {
		case '0':
			if seenHash {
				return nf, fmt.Errorf("%w: number pattern %q has '0' after '#'", ErrConfiguration, pattern)
			}
			nf.minFrac++
		case '#':
			seenHash = true
		case ',':
			return nf, fmt.Errorf("%w: number pattern %q has a grouping separator in the fraction", ErrConfiguration, pattern)
		}
		nf.maxFrac++
	}
	if digits == 0 && nf.maxFrac == 0 {
		return nf, fmt.Errorf("%w: number pattern %q has no digits", ErrConfiguration, pattern)
	}
	return nf, nil
}

// Format renders d. A '%' or '‰' in the pattern scales d by 100 or 1000.
// The returned offset is the byte index where the fraction digits start; it
// equals the end of the integer digits when the result has no fraction.
func (nf *NumberFormat) Format(d decimal.Decimal) (string, int) {
	if nf.multiplier > 1 {
		d = d.Mul(decimal.NewFromInt(nf.multiplier))
	}
	rounded := d.RoundBank(int32(nf.maxFrac))
	neg := rounded.Sign() < 0

	fixed := rounded.Abs().StringFixed(int32(nf.maxFrac))
	intDigits, fracDigits, _ := strings.Cut(fixed, ".")

	for len(fracDigits) > nf.minFrac && strings.HasSuffix(fracDigits, "0") {
		fracDigits = fracDigits[:len(fracDigits)-1]
	}
	intDigits = strings.TrimLeft(intDigits, "0")
	if len(intDigits) < nf.minInt {
		intDigits = strings.Repeat("0", nf.minInt-len(intDigits)) + intDigits
	}
	if intDigits == "" && fracDigits == "" {
		intDigits = "0"
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	sb.WriteString(nf.prefix)
	sb.WriteString(nf.group(intDigits))
	fracStart := sb.Len()
	if fracDigits != "" {
		sb.WriteRune(nf.decimalSep)
		fracStart = sb.Len()
		sb.WriteString(fracDigits)
	}
	sb.WriteString(nf.suffix)
	return sb.String(), fracStart
}

func (nf *NumberFormat) group(digits string) string {
	if nf.grouping <= 0 || len(digits) <= nf.grouping {
		return digits
	}
	var sb strings.Builder
	lead := len(digits) % nf.grouping
	if lead > 0 {
		sb.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += nf.grouping {
		if sb.Len() > 0 {
			sb.WriteRune(nf.groupingSep)
		}
		sb.WriteString(digits[i : i+nf.grouping])
	}
	return sb.String()
}
