package service

import (
	"fmt"
	"strings"
)

// NotInitializedReply is shown instead of a translation when the model has not been loaded.
const NotInitializedReply = "The translation model is not loaded yet."

// ClearedNotice is the single entry left in the log by ClearChat.
const ClearedNotice = "Chat cleared. Ready for a new conversation."

// TranslationPrompt builds the instruction for one send. A bare image asks for
// the object's name in both languages; anything else is a literal translation.
func TranslationPrompt(text string, hasImage bool, sourceLang, targetLang string) string {
	if hasImage && strings.TrimSpace(text) == "" {
		return fmt.Sprintf(
			"Look at the image. Reply with the object name in %s, then in %s, separated by a newline. Nothing else.",
			sourceLang, targetLang,
		)
	}
	return fmt.Sprintf("Translate this to %s. Only give the translated sentence: %s", targetLang, strings.TrimSpace(text))
}

// FollowUpPrompt asks about a previous answer without translating it again.
func FollowUpPrompt(original, query, targetLang string) string {
	return fmt.Sprintf(`The following is a translation: "%s".

Answer the user's question based on it:
"%s"

Do not translate anything.
Respond in %s only. No other languages.`, original, query, targetLang)
}

// translationLabels are preambles some models put in front of the answer.
var translationLabels = []string{"translation:", "translated sentence:", "here is the translation:"}

// cleanReply trims whitespace and a leading label from a model reply.
func cleanReply(reply string) string {
	reply = strings.TrimSpace(reply)
	lower := strings.ToLower(reply)
	for _, label := range translationLabels {
		if strings.HasPrefix(lower, label) {
			reply = strings.TrimSpace(reply[len(label):])
			break
		}
	}
	return reply
}
