package postprocess

import (
	"regexp"
	"strings"

	"github.com/pmc-chatbot/server/internal/agent/model"
)

// serviceRefPattern matches the service identifiers the model mentions when
// it cites a record from the corpus.
var serviceRefPattern = regexp.MustCompile(`service-[0-9]+`)

// documentKeywords is the fixed vocabulary (with transliterated and
// Devanagari equivalents) indicating the user asked about required documents.
var documentKeywords = []string{
	"document",
	"documents",
	"papers",
	"proof",
	"kagadpatra",
	"kagadpatre",
	"dastaevaj",
	"कागदपत्र",
	"कागदपत्रे",
	"दस्तऐवज",
}

// minListItems is the enumeration length below which a document answer is
// flagged as possibly incomplete. A heuristic proxy, not a verified count
// against the knowledge base.
const minListItems = 5

const incompleteListNote = "\n\nNote: This list may be incomplete. Please ask me again for the complete list of required documents."

// Result is the shaped model output.
type Result struct {
	CleanedText       string
	References        []string
	WasTrackingSignal bool
}

// Process shapes raw model output: strips the tracking sentinel, collects
// unique service references, and appends a completeness caveat when a
// document question got a suspiciously short enumeration. Order matters: the
// sentinel is removed before the text is scanned or counted.
func Process(raw string, userMessage string) Result {
	wasTracking := strings.Contains(raw, model.TrackingMarker)
	cleaned := strings.TrimSpace(strings.ReplaceAll(raw, model.TrackingMarker, ""))

	references := uniqueReferences(cleaned)

	if asksAboutDocuments(userMessage) && countListItems(cleaned) < minListItems {
		cleaned += incompleteListNote
	}

	return Result{
		CleanedText:       cleaned,
		References:        references,
		WasTrackingSignal: wasTracking,
	}
}

func uniqueReferences(text string) []string {
	matches := serviceRefPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		refs = append(refs, m)
	}
	return refs
}

func asksAboutDocuments(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range documentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func countListItems(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- ") {
			count++
		}
	}
	return count
}
