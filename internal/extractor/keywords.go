package extractor

import "strings"

// suspiciousKeywords is the fixed vocabulary scanned against lower-cased page
// markup. The recorded count is the number of distinct entries present.
var suspiciousKeywords = []string{
	"login", "signin", "password", "bank", "paypal", "amazon", "google",
	"facebook", "apple", "microsoft", "secure", "verify", "account",
	"suspended", "urgent", "immediate", "click", "winner", "congratulations",
	"free", "prize", "offer", "limited", "expire", "confirm", "update",
	"billing", "payment", "credit", "card", "ssn", "social", "security",
}

func countSuspiciousKeywords(loweredHTML string) int {
	n := 0
	for _, kw := range suspiciousKeywords {
		if strings.Contains(loweredHTML, kw) {
			n++
		}
	}
	return n
}
