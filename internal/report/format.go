package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var monthNames = [...]string{
	"januar", "februar", "marec", "april", "maj", "junij",
	"julij", "avgust", "september", "oktober", "november", "december",
}

// MonthName returns the Slovene name of a month.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// Signed formats v with the given number of decimals, prefixing "+" when
// the rounded value is not negative. Negative values carry their own "-".
func Signed(v decimal.Decimal, places int32) string {
	r := v.Round(places)
	if r.IsNegative() {
		return r.StringFixed(places)
	}
	return "+" + r.StringFixed(places)
}

// Fixed formats v with the given number of decimals and no sign prefix.
func Fixed(v decimal.Decimal, places int32) string {
	return v.Round(places).StringFixed(places)
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeHTML escapes the characters Telegram's HTML parse mode reserves.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// shortDate renders a day as D.M (no leading zeros).
func shortDate(t time.Time) string {
	return fmt.Sprintf("%d.%d", t.Day(), int(t.Month()))
}
