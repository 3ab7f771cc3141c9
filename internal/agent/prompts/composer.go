package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/pmc-chatbot/server/internal/agent/model"
	"github.com/pmc-chatbot/server/internal/knowledge"
)

//go:embed template/system_prompt.txt
var systemPrompt string

// languageInstructions maps the detected language to the clause embedded in
// the prompt.
var languageInstructions = map[model.Language]string{
	model.LanguageEnglish: "Respond in English.",
	model.LanguageMarathi: "Respond in Marathi (Devanagari script), keeping service names and links as they appear in the data.",
}

// Composer assembles the full model input: persona preamble, language clause,
// formatting rules, the knowledge corpus verbatim, trimmed history, the
// user's question, and a closing no-truncation reminder.
type Composer struct {
	corpus   knowledge.Corpus
	maxTurns int
}

func NewComposer(corpus knowledge.Corpus, cfg model.ConversationConfig) *Composer {
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}
	return &Composer{corpus: corpus, maxTurns: maxTurns}
}

// Compose renders the prompt via the Eino prompt component (so prompt
// callbacks fire) and returns the final text. Deterministic string assembly;
// no external calls.
func (c *Composer) Compose(ctx context.Context, message string, history []model.ChatTurn, lang model.Language) (string, error) {
	instruction, ok := languageInstructions[lang]
	if !ok {
		instruction = languageInstructions[model.LanguageEnglish]
	}

	// Safely render known tokens only: the corpus and user text may contain
	// braces that would break a template engine.
	content := strings.NewReplacer(
		"{tracking_marker}", model.TrackingMarker,
		"{language_instruction}", instruction,
		"{municipal_data}", string(c.corpus),
		"{conversation_history}", c.renderHistory(history),
		"{user_question}", message,
	).Replace(systemPrompt)

	// Wrap via Eino prompt component using a messages placeholder to emit callbacks
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("prompt_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"prompt_messages": []*schema.Message{schema.UserMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("prompt callbacks: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("prompt callbacks: empty result")
	}
	return msgs[0].Content, nil
}

// renderHistory emits up to maxTurns most recent turns as "ROLE: content"
// lines, oldest first.
func (c *Composer) renderHistory(history []model.ChatTurn) string {
	recent := trimTail(history, c.maxTurns)
	if len(recent) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("CONVERSATION HISTORY:\n")
	for _, turn := range recent {
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		role := strings.ToUpper(turn.Role)
		if role == "" {
			role = "USER"
		}
		b.WriteString(role + ": " + turn.Content + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// trimTail returns a copy of the most recent maxTurns entries.
func trimTail(turns []model.ChatTurn, maxTurns int) []model.ChatTurn {
	if len(turns) <= maxTurns {
		result := make([]model.ChatTurn, len(turns))
		copy(result, turns)
		return result
	}
	source := turns[len(turns)-maxTurns:]
	result := make([]model.ChatTurn, len(source))
	copy(result, source)
	return result
}
