package nmi_direct_post

// binRange is an inclusive range of card number prefixes of equal length.
type binRange struct {
	lo, hi string
	brand  string
}

// binRanges is checked in order; the first match wins.
var binRanges = []binRange{
	{"4", "4", "visa"},
	{"34", "34", "amex"},
	{"37", "37", "amex"},
	{"51", "55", "mastercard"},
	{"2221", "2720", "mastercard"},
	{"6011", "6011", "discover"},
	{"622126", "622925", "discover"},
	{"644", "649", "discover"},
	{"65", "65", "discover"},
}

// DetectCardBrand returns the card brand for a card number or BIN, as
// reported in the gateway's cc_bin field.
// Returns "visa", "mastercard", "amex", "discover", or "" if unknown.
func DetectCardBrand(bin string) string {
	for _, r := range binRanges {
		if len(bin) < len(r.lo) {
			continue
		}
		p := bin[:len(r.lo)]
		if p >= r.lo && p <= r.hi {
			return r.brand
		}
	}
	return ""
}

// CardBrandDisplayName maps a brand from DetectCardBrand to its display name.
var CardBrandDisplayName = map[string]string{
	"visa":       "Visa",
	"mastercard": "Mastercard",
	"amex":       "American Express",
	"discover":   "Discover",
}
