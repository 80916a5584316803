package types

import (
	"fmt"
	"strconv"
	"strings"
)

// RomanPageOffset shifts roman front-matter pages below page 1.
// Roman page n is stored as n - RomanPageOffset.
const RomanPageOffset = 1000

// EncodeRomanPage converts a roman page ordinal (xi = 11) to its stored value
func EncodeRomanPage(n int) int {
	return n - RomanPageOffset
}

// IsRomanPage reports whether a stored page number is a roman front-matter page
func IsRomanPage(page int) bool {
	return page < 0 && page > -RomanPageOffset
}

// FormatPage renders a stored page number the way it is printed
func FormatPage(page int) string {
	if IsRomanPage(page) {
		return toRoman(page + RomanPageOffset)
	}
	return strconv.Itoa(page)
}

// ParsePage parses a printed page label ("12" or "xii") into its stored value
func ParsePage(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty page", ErrInvalidPage)
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%w: %d", ErrInvalidPage, n)
		}
		return n, nil
	}
	n, ok := fromRoman(strings.ToLower(s))
	if !ok || n >= RomanPageOffset {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPage, s)
	}
	return EncodeRomanPage(n), nil
}

var romanNumerals = []struct {
	value  int
	symbol string
}{
	{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
	{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
	{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
}

func toRoman(n int) string {
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

func fromRoman(s string) (int, bool) {
	total := 0
	rest := s
	for _, r := range romanNumerals {
		for strings.HasPrefix(rest, r.symbol) {
			total += r.value
			rest = rest[len(r.symbol):]
		}
	}
	if rest != "" || total == 0 {
		return 0, false
	}
	// Reject non-canonical forms such as "iiii"
	if toRoman(total) != s {
		return 0, false
	}
	return total, true
}
