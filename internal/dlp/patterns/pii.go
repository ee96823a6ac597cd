package patterns

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/clawguard/clawguard/internal/dlp"
)

// PIIPattern is one compiled PII detector, with an optional validator that
// filters pattern matches down to plausible values (Luhn, SSN area codes).
type PIIPattern struct {
	Name      string
	Pattern   *regexp.Regexp
	Severity  dlp.Severity
	Validator func(string) bool
}

// ValidateSSN rejects SSNs with area codes 000/666/900-999, or a zero
// group or serial, per the standard SSA allocation rules.
func ValidateSSN(raw string) bool {
	digits := strings.ReplaceAll(raw, "-", "")
	if len(digits) != 9 {
		return false
	}
	area, err1 := strconv.Atoi(digits[0:3])
	group, err2 := strconv.Atoi(digits[3:5])
	serial, err3 := strconv.Atoi(digits[5:9])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	if group == 0 || serial == 0 {
		return false
	}
	return true
}

// luhnCheck runs the Luhn checksum over the digit characters of number.
func luhnCheck(number string) bool {
	var digits []int
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits = append(digits, int(r-'0'))
		}
	}
	if len(digits) < 13 {
		return false
	}
	checksum := 0
	for i := 0; i < len(digits); i++ {
		d := digits[len(digits)-1-i]
		if i%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		checksum += d
	}
	return checksum%10 == 0
}

var separatorStripper = strings.NewReplacer(" ", "", "-", "")

// ValidateCreditCard strips separators and runs the Luhn checksum.
func ValidateCreditCard(raw string) bool {
	return luhnCheck(separatorStripper.Replace(raw))
}

// PIIPatterns is the full built-in PII detector catalog.
var PIIPatterns = []PIIPattern{
	{"ssn", regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`), dlp.SeverityCritical, ValidateSSN},
	{"credit_card_visa", regexp.MustCompile(`\b4[0-9]{3}[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}\b`), dlp.SeverityCritical, ValidateCreditCard},
	{"credit_card_mastercard", regexp.MustCompile(`\b5[1-5][0-9]{2}[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}\b`), dlp.SeverityCritical, ValidateCreditCard},
	{"credit_card_amex", regexp.MustCompile(`\b3[47][0-9]{2}[\s\-]?[0-9]{6}[\s\-]?[0-9]{5}\b`), dlp.SeverityCritical, ValidateCreditCard},
	{"credit_card_discover", regexp.MustCompile(`\b6(?:011|5[0-9]{2})[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}[\s\-]?[0-9]{4}\b`), dlp.SeverityCritical, ValidateCreditCard},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`), dlp.SeverityMedium, nil},
	// RE2 has no lookbehind/lookahead, so unlike the reference scanner this
	// can match inside a longer digit run rather than rejecting it outright.
	{"phone_us", regexp.MustCompile(`(?:\+?1[\s\-.]?)?(?:\(?[0-9]{3}\)?[\s\-.]?)[0-9]{3}[\s\-.]?[0-9]{4}`), dlp.SeverityMedium, nil},
	{"phone_e164", regexp.MustCompile(`\+[1-9][0-9]{6,14}\b`), dlp.SeverityMedium, nil},
	{"ipv4_address", regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`), dlp.SeverityLow, nil},
	{"ipv6_address", regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b|\b(?:[0-9a-fA-F]{1,4}:){1,7}:\b|\b::(?:[0-9a-fA-F]{1,4}:){0,5}[0-9a-fA-F]{1,4}\b`), dlp.SeverityLow, nil},
}

// PIIDescriptions maps a PII pattern name to its human-readable catalog
// description.
var PIIDescriptions = map[string]string{
	"ssn":                     "US Social Security Number (XXX-XX-XXXX)",
	"credit_card_visa":        "Visa credit card number (starts with 4)",
	"credit_card_mastercard":  "Mastercard credit card number (starts with 51-55)",
	"credit_card_amex":        "American Express card number (starts with 34/37)",
	"credit_card_discover":    "Discover credit card number (starts with 6011/65)",
	"email":                   "Email address",
	"phone_us":                "US phone number",
	"phone_e164":              "International phone number (E.164 format)",
	"ipv4_address":            "IPv4 address",
	"ipv6_address":            "IPv6 address",
}

// PIICategoryLabels maps a PII pattern name to its catalog category label.
var PIICategoryLabels = map[string]string{
	"ssn":                    "SSN",
	"credit_card_visa":       "Credit Cards",
	"credit_card_mastercard": "Credit Cards",
	"credit_card_amex":       "Credit Cards",
	"credit_card_discover":   "Credit Cards",
	"email":                  "Email",
	"phone_us":               "Phone",
	"phone_e164":             "Phone",
	"ipv4_address":           "IP Addresses",
	"ipv6_address":           "IP Addresses",
}
