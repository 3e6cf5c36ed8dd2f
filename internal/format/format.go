// Package format renders scan and market values for display.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Placeholder is shown for absent values.
const Placeholder = "-"

// DefaultShortenChars is the number of characters kept on each side of a shortened address.
const DefaultShortenChars = 4

// maxFractionDigits matches the en-US locale default for plain numbers.
const maxFractionDigits = 3

// groupSeparator is the en-US thousands separator, used for integers beyond int64.
const groupSeparator = ","

var printer = message.NewPrinter(language.AmericanEnglish)

// ShortenAddress keeps the prefix (with "0x") and the last chars characters:
// "0xdAC17F958D2ee523a2206206994597C13D831ec7" -> "0xdAC1...1ec7".
func ShortenAddress(address string, chars int) string {
	if address == "" {
		return Placeholder
	}
	if chars <= 0 {
		chars = DefaultShortenChars
	}
	if len(address) <= 2*chars+2 {
		return address
	}
	return address[:chars+2] + "..." + address[len(address)-chars:]
}

// Number localizes v with grouping and at most three fraction digits.
func Number(v float64) string {
	return localize(decimal.NewFromFloat(v), maxFractionDigits)
}

// NumberString parses a provider string and localizes it.
// Empty, zero and unparsable values render the placeholder.
func NumberString(s string) string {
	d, ok := parse(s)
	if !ok || d.IsZero() {
		return Placeholder
	}
	return localize(d, maxFractionDigits)
}

// Integer localizes n. Zero renders the placeholder.
func Integer(n int64) string {
	if n == 0 {
		return Placeholder
	}
	return printer.Sprint(number.Decimal(n))
}

// USD renders v rounded to cents as "$ 1,234.5". Zero renders the placeholder.
func USD(v float64) string {
	if v == 0 {
		return Placeholder
	}
	return "$ " + localize(decimal.NewFromFloat(v).Round(2), maxFractionDigits)
}

// USDString is USD for a provider string.
func USDString(s string) string {
	d, ok := parse(s)
	if !ok || d.IsZero() {
		return Placeholder
	}
	return "$ " + localize(d.Round(2), maxFractionDigits)
}

// Percent renders a fraction ("0.0512") as a percentage with two decimals ("5.12%").
func Percent(s string) string {
	d, ok := parse(s)
	if !ok {
		return Placeholder
	}
	return d.Shift(2).StringFixed(2) + "%"
}

// Rate is a tax rate prepared for display.
type Rate struct {
	Text    string
	Percent decimal.Decimal
	Present bool
	High    bool
}

// TaxRate renders a fractional tax ("0.12") as "12.0%" and flags it high when
// the percentage exceeds threshold. Absent or unparsable rates render the placeholder.
func TaxRate(s string, threshold int64) Rate {
	d, ok := parse(s)
	if !ok {
		return Rate{Text: Placeholder}
	}
	pct := d.Shift(2)
	return Rate{
		Text:    pct.StringFixed(1) + "%",
		Percent: pct,
		Present: true,
		High:    pct.GreaterThan(decimal.NewFromInt(threshold)),
	}
}

func parse(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// localize rounds d to places and groups the integer digits. The value never
// passes through float64, so supplies beyond 2^53 keep every digit.
func localize(d decimal.Decimal, places int32) string {
	r := d.Round(places)
	neg := r.IsNegative()
	r = r.Abs()

	whole := r.Truncate(0)
	text := groupInteger(whole)
	if frac := r.Sub(whole); !frac.IsZero() {
		text += strings.TrimPrefix(frac.String(), "0")
	}
	if neg {
		text = "-" + text
	}
	return text
}

func groupInteger(whole decimal.Decimal) string {
	if b := whole.BigInt(); b.IsInt64() {
		return printer.Sprint(number.Decimal(b.Int64()))
	}

	digits := whole.String()
	var sb strings.Builder
	head := len(digits) % 3
	if head > 0 {
		sb.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(groupSeparator)
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
