package storefront

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money formats amounts with the store's locale and currency symbol, always
// with two fraction digits.
type Money struct {
	printer *message.Printer
	symbol  string
}

// NewMoney builds a formatter. Unknown locales fall back to Spanish.
func NewMoney(locale, symbol string) Money {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return Money{printer: message.NewPrinter(tag), symbol: symbol}
}

func (m Money) Format(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	if m.printer == nil {
		return m.symbol + amount.StringFixed(2)
	}
	return m.symbol + m.printer.Sprint(number.Decimal(value, number.Scale(2)))
}
