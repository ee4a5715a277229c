package relay

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var (
	zipPattern          = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	cityStateZipPattern = regexp.MustCompile(`,\s*([^,]+),\s*([A-Z]{2})\s+\d{5}(?:-\d{4})?\b`)
)

// FormatUSD renders v as whole dollars with thousands separators, e.g. "$1,235".
// Halves round away from zero. The rounded value stays a float so amounts
// beyond the int64 range keep their magnitude.
func FormatUSD(v float64) string {
	p := message.NewPrinter(language.AmericanEnglish)
	return "$" + p.Sprint(number.Decimal(math.Round(v), number.MaxFractionDigits(0)))
}

// formatPlain renders an optional number as a plain decimal string, "" when absent.
func formatPlain(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// positiveUSD formats v only when it is a finite positive number.
func positiveUSD(v *float64) (string, bool) {
	if v == nil || !isFinite(*v) || *v <= 0 {
		return "", false
	}
	return FormatUSD(*v), true
}

// nonNegativeUSD formats v when it is finite and zero or greater.
func nonNegativeUSD(v *float64) (string, bool) {
	if v == nil || !isFinite(*v) || *v < 0 {
		return "", false
	}
	return FormatUSD(*v), true
}

// Subdivision is one entry of the address subdivision list.
type Subdivision struct {
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// AddressInput is the structured address the lender form expects.
type AddressInput struct {
	Formatted    string        `json:"formatted"`
	Country      string        `json:"country"`
	PostalCode   string        `json:"postalCode,omitempty"`
	Subdivision  string        `json:"subdivision,omitempty"`
	City         string        `json:"city,omitempty"`
	Subdivisions []Subdivision `json:"subdivisions"`
}

var countryUS = Subdivision{Code: "US", Name: "United States", Type: "COUNTRY"}

// ParseAddress decomposes a free-text US address. Parts that cannot be
// recognised are left empty; parsing never fails.
func ParseAddress(raw string) AddressInput {
	trimmed := strings.TrimSpace(raw)
	out := AddressInput{Formatted: trimmed, Country: "US"}

	if zip := zipPattern.FindString(trimmed); zip != "" {
		out.PostalCode = zip
	}
	if m := cityStateZipPattern.FindStringSubmatch(trimmed); m != nil {
		out.City = strings.TrimSpace(m[1])
		out.Subdivision = strings.TrimSpace(m[2])
	}

	if out.Subdivision != "" {
		out.Subdivisions = append(out.Subdivisions, Subdivision{
			Code: out.Subdivision,
			Name: out.Subdivision,
			Type: "ADMINISTRATIVE_AREA_LEVEL_1",
		})
	}
	out.Subdivisions = append(out.Subdivisions, countryUS)
	return out
}
