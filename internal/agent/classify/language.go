package classify

import (
	"unicode"

	"github.com/pmc-chatbot/server/internal/agent/model"
)

// devanagariThreshold is the Devanagari fraction above which a message is
// treated as Marathi. The tolerance absorbs transliterated and mixed-script
// input; a plain substring check would misclassify short codes.
const devanagariThreshold = 0.30

func isDevanagari(r rune) bool {
	return r >= 0x0900 && r <= 0x097F
}

// DetectLanguage classifies a message by script majority. Messages with no
// non-whitespace characters default to English.
func DetectLanguage(text string) model.Language {
	total := 0
	devanagari := 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if isDevanagari(r) {
			devanagari++
		}
	}
	if total == 0 {
		return model.LanguageEnglish
	}
	if float64(devanagari)/float64(total) > devanagariThreshold {
		return model.LanguageMarathi
	}
	return model.LanguageEnglish
}
