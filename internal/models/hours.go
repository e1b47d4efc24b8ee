package models

import "github.com/shopspring/decimal"

// HoursPlaces is the number of decimal places kept for hour values.
const HoursPlaces = 2

var (
	sixty      = decimal.NewFromInt(60)
	oneHundred = decimal.NewFromInt(100)
)

// HoursFromMinutes converts whole minutes to hours rounded to two places.
func HoursFromMinutes(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(sixty).Round(HoursPlaces)
}

// ParseHours parses a decimal hour value, rounding to two places.
func ParseHours(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(HoursPlaces), nil
}

// PercentOf returns round(100*part/whole, 2), or an invalid value when whole is zero.
func PercentOf(part, whole decimal.Decimal) decimal.NullDecimal {
	if whole.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Mul(oneHundred).Div(whole).Round(HoursPlaces))
}

// FormatHours renders an hour value with exactly two decimals.
func FormatHours(d decimal.Decimal) string {
	return d.StringFixed(HoursPlaces)
}

// FormatPercent renders a nullable percentage; undefined renders as "".
func FormatPercent(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.StringFixed(HoursPlaces)
}
