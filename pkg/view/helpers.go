package view

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money formats an amount with its currency symbol, e.g. 10 EUR -> "€10.00".
func Money(amount decimal.Decimal, currency string) string {
	return currencySymbol(strings.ToUpper(currency)) + amount.StringFixed(2)
}

func currencySymbol(code string) string {
	switch code {
	case "EUR":
		return "€"
	case "USD":
		return "$"
	case "GBP":
		return "£"
	case "JPY":
		return "¥"
	case "TRY":
		return "₺"
	default:
		return code + " "
	}
}
