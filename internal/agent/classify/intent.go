package classify

import "strings"

// trackingKeywords is the fixed vocabulary for "the user wants a status
// update". Substring matching is intentionally permissive: a false positive
// only triggers a clarifying prompt, never an external call.
var trackingKeywords = []string{
	"track",
	"status",
	"application id",
	"application number",
	"application no",
	"reference number",
	"reference no",
	"follow up",
	"followup",
	"progress",
	"where is my application",
	"check my application",
}

// HasTrackingIntent reports whether the message contains any tracking
// keyword. Case-insensitive, no tokenization.
func HasTrackingIntent(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range trackingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
