package classify

import "regexp"

// identifierRules is the ordered pattern list for application identifiers.
// Most specific first: a PL-prefixed 19-character number must be captured
// whole, not as the bare-digits substring a looser rule would grab.
// The matched substring is returned verbatim, no normalization.
var identifierRules = []*regexp.Regexp{
	regexp.MustCompile(`[A-Z]{2}[0-9]{14,}`),          // two letters + long number, e.g. PL10000004252600772
	regexp.MustCompile(`[A-Z]{2,}[0-9]{6,}`),          // letter prefix + medium number
	regexp.MustCompile(`[0-9]{8,}`),                   // bare long number
	regexp.MustCompile(`[A-Z][0-9]{7,}`),              // single letter prefix
	regexp.MustCompile(`[0-9]{4,6}[-/][0-9]{4,6}`),    // split number, e.g. 2024/00123
	regexp.MustCompile(`[A-Z]{1,3}[0-9]{10,}`),        // short prefix + very long number
}

// ExtractIdentifier scans free text for an application identifier and returns
// the first match of the first rule that hits. Deterministic and pure.
func ExtractIdentifier(text string) (string, bool) {
	for _, rule := range identifierRules {
		if m := rule.FindString(text); m != "" {
			return m, true
		}
	}
	return "", false
}
