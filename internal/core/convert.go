package core

// convert.go turns spreadsheet cells into amounts for the letter.
//
// Cells arrive as text whatever the source format. An amount cell is read
// the way a plain numeric conversion reads it: surrounding whitespace is
// ignored, an empty cell is zero, and anything else must be a decimal number
// with an optional sign and exponent. Currency symbols, thousands separators
// and accounting parentheses are not numbers; such cells show up in the
// letter as NaN so a malformed sheet is visible to the reader.

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseAmount parses an amount cell. Empty cells are zero.
// ok is false, and v is NaN, when the cell is not a number.
func ParseAmount(s string) (v float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if !numericRegex.MatchString(s) {
		return math.NaN(), false
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// FormatAmount renders a cell as "1,234,567.89". Cells that are not numbers
// render as "NaN".
func FormatAmount(s string) string {
	v, ok := ParseAmount(s)
	if !ok {
		return "NaN"
	}
	return formatThousands(v)
}

// formatThousands formats v with two decimals and comma group separators.
func formatThousands(v float64) string {
	raw := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac, _ := strings.Cut(raw, ".")

	var b strings.Builder
	if v < 0 && raw != "0.00" {
		b.WriteByte('-')
	}
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// CleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace, an Excel formula prefix (="...") and quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
