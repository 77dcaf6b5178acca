package stripesync

import "strings"

// zeroDecimalCurrencies are the currencies Stripe denominates in whole
// units rather than the smallest subunit.
var zeroDecimalCurrencies = map[string]struct{}{
	"bif": {}, "clp": {}, "djf": {}, "gnf": {}, "jpy": {},
	"kmf": {}, "krw": {}, "mga": {}, "pyg": {}, "rwf": {},
	"vuv": {}, "xaf": {}, "xof": {}, "xpf": {},
}

// ConvertAmount turns a Stripe amount into major currency units. Amounts
// arrive in the smallest subunit except for zero-decimal currencies, which
// pass through unchanged. An empty currency is treated as usd.
func ConvertAmount(amount int64, currency string) float64 {
	if currency == "" {
		currency = "usd"
	}
	if _, ok := zeroDecimalCurrencies[strings.ToLower(currency)]; ok {
		return float64(amount)
	}
	return float64(amount) / 100
}
