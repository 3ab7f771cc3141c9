package tracking

import (
	"strings"

	"github.com/pmc-chatbot/server/internal/agent/model"
)

// guidance maps the known status vocabulary to a next-step sentence. Any
// other status value gets the generic customer-service sentence.
var guidance = map[string]string{
	"APPROVED":    "Good news! Your application has been approved. You can download or collect your certificate from the PMC office or portal.",
	"PENDING":     "Your application is pending review. Please check back in a few days.",
	"REJECTED":    "Unfortunately your application was rejected. Please review the remark above and reapply with the corrected details.",
	"IN_PROGRESS": "Your application is being processed. No action is needed from your side right now.",
}

const genericGuidance = "For more details about this status, please contact PMC customer service at 020-25501000."

// Format renders a status record as a human-readable narrative. The queried
// identifier is the display fallback when the record omits its own token.
func Format(rec model.StatusRecord, queriedID string) string {
	token := rec.Token
	if strings.TrimSpace(token) == "" {
		token = queriedID
	}
	remark := rec.Remark
	if strings.TrimSpace(remark) == "" {
		remark = "No remark provided"
	}
	status := rec.AppStatus
	if strings.TrimSpace(status) == "" {
		status = "Unknown"
	}

	var b strings.Builder
	b.WriteString("Here is the latest update on your application:\n\n")
	b.WriteString("- Application Number: " + token + "\n")
	b.WriteString("- Status: " + status + "\n")
	b.WriteString("- Remark: " + remark + "\n\n")

	if sentence, ok := guidance[strings.ToUpper(strings.TrimSpace(rec.AppStatus))]; ok {
		b.WriteString(sentence)
	} else {
		b.WriteString(genericGuidance)
	}

	return b.String()
}
