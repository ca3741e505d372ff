package output

import "github.com/shopspring/decimal"

// FormatCurrency renders a decimal as a USD amount with cents.
func FormatCurrency(v decimal.Decimal) string { return "$" + v.StringFixed(2) }

// FormatPercentage renders a decimal as a percentage with two decimal places.
func FormatPercentage(v decimal.Decimal) string { return v.StringFixed(2) + "%" }
