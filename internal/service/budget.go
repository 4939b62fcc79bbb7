package service

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// BudgetCurrency is the currency every budget allocation is held in.
const BudgetCurrency = money.PHP

// budgetLimit bounds budget_allocation NUMERIC(14,2): amounts must stay below 10^12.
var budgetLimit = decimal.New(1, 12)

// ParseBudget parses currency-formatted budget text such as "₱1,000.00". Currency
// symbols, a "PHP" code at either end, grouping commas and whitespace are ignored. An
// empty budget parses to zero. ok is false when the remaining text is not a number or
// does not fit the stored column.
func ParseBudget(raw string) (amount decimal.Decimal, ok bool) {
	cleaned := strings.TrimSpace(raw)
	if len(cleaned) >= 3 && strings.EqualFold(cleaned[:3], "PHP") {
		cleaned = cleaned[3:]
	} else if n := len(cleaned); n >= 3 && strings.EqualFold(cleaned[n-3:], "PHP") {
		cleaned = cleaned[:n-3]
	}
	cleaned = strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) || unicode.Is(unicode.Sc, r) {
			return -1
		}
		return r
	}, cleaned)
	if cleaned == "" {
		return decimal.Zero, true
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil || amount.Round(2).Abs().GreaterThanOrEqual(budgetLimit) {
		return decimal.Zero, false
	}
	return amount, true
}

// CoerceBudget parses the budget and falls back to zero on unparsable input.
func CoerceBudget(raw string) decimal.Decimal {
	amount, ok := ParseBudget(raw)
	if !ok {
		return decimal.Zero
	}
	return amount
}

// FormatBudget renders an amount in BudgetCurrency for people, e.g. in summary emails.
// Fractions beyond the currency's minor unit are rounded.
func FormatBudget(amount decimal.Decimal) string {
	minor := amount.Shift(2).Round(0).IntPart()
	return money.New(minor, BudgetCurrency).Display()
}
