package view

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"iexpense/internal/core"
)

// AmountFormatter renders amounts in one display currency and locale.
// Amounts are stored without a currency; the code here is display-only.
type AmountFormatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewAmountFormatter builds a formatter for an ISO 4217 code such as "USD"
// and a BCP 47 locale such as "en" or "it-IT".
func NewAmountFormatter(code, locale string) (*AmountFormatter, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	return &AmountFormatter{printer: message.NewPrinter(tag), unit: unit}, nil
}

// MustAmountFormatter is NewAmountFormatter for known-good constants.
func MustAmountFormatter(code, locale string) *AmountFormatter {
	f, err := NewAmountFormatter(code, locale)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *AmountFormatter) Format(m core.Money) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(m.Units())))
}

// Currency returns the ISO code used for display.
func (f *AmountFormatter) Currency() string {
	return f.unit.String()
}
