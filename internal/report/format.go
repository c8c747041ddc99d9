package report

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Display-only helpers. All computation happens on raw float64 values;
// these strings are never parsed back.

var printer = message.NewPrinter(language.BrazilianPortuguese)

// FormatCurrency renders an amount as BRL with two decimal places.
func FormatCurrency(v float64) string {
	return printer.Sprintf("R$ %.2f", v)
}

// FormatPercent renders a ratio (0.2727 -> "27,27%") with two decimal
// places.
func FormatPercent(v float64) string {
	return printer.Sprintf("%.2f%%", v*100)
}
