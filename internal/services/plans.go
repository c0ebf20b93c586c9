package services

import (
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Plan is a purchasable credit bundle.
type Plan struct {
	ID              string `json:"id"`
	Credits         int    `json:"credits"`
	PriceMinorUnits int64  `json:"price_minor_units"`
}

// PlanCatalog is an ordered, static list of plans.
type PlanCatalog []Plan

// DefaultPlans is the catalog offered to users.
var DefaultPlans = PlanCatalog{
	{ID: "1_credit", Credits: 1, PriceMinorUnits: 100},
	{ID: "8_credits", Credits: 8, PriceMinorUnits: 500},
	{ID: "20_credits", Credits: 20, PriceMinorUnits: 1000},
}

// Lookup finds a plan by id.
func (c PlanCatalog) Lookup(id string) (Plan, bool) {
	id = strings.TrimSpace(id)
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// PriceFormatter renders minor-unit prices for display, e.g. "NGN 5.00".
type PriceFormatter struct {
	unit    currency.Unit
	scale   int
	printer *message.Printer
}

// NewPriceFormatter builds a formatter for an ISO 4217 code. Unknown codes
// fall back to NGN.
func NewPriceFormatter(code string, lang language.Tag) PriceFormatter {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		unit = currency.MustParseISO("NGN")
	}
	scale, _ := currency.Standard.Rounding(unit)
	return PriceFormatter{unit: unit, scale: scale, printer: message.NewPrinter(lang)}
}

// Currency returns the ISO code.
func (f PriceFormatter) Currency() string { return f.unit.String() }

// Format renders minor units as a display amount.
func (f PriceFormatter) Format(minor int64) string {
	major := float64(minor) / math.Pow10(f.scale)
	sym := f.printer.Sprint(currency.Symbol(f.unit))
	return sym + " " + f.printer.Sprint(number.Decimal(major, number.Scale(f.scale)))
}
