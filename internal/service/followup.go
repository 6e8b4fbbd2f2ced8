package service

import (
	"errors"
	"log/slog"
	"strings"

	app_errors "polyglot/backend/internal/errors"
	"polyglot/backend/internal/model"
)

// StartDiscussion opens a fresh follow-up log about a finished translation.
func (s *ConversationService) StartDiscussion() {
	s.store.UpdateFollowUps(func([]model.Message) []model.Message { return []model.Message{} })
}

// AskFollowUp appends query to the follow-up log and answers it in the
// background. The answer explains original in targetLang; it never
// re-translates it.
func (s *ConversationService) AskFollowUp(query, original, targetLang string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	s.store.UpdateFollowUps(func(msgs []model.Message) []model.Message {
		return append(msgs, model.NewMessage(model.RoleUser, model.KindText, query))
	})

	prompt := FollowUpPrompt(original, query, targetLang)
	s.dispatch(func() {
		var reply string
		err := safely(func() (err error) {
			reply, err = s.llm.Generate(s.ctx, prompt, nil)
			return err
		})
		reply = strings.TrimSpace(reply)

		var answer model.Message
		switch {
		case s.ctx.Err() != nil:
			return
		case errors.Is(err, app_errors.ErrNotInitialized):
			answer = model.NewMessage(model.RoleAssistant, model.KindError, NotInitializedReply)
		case err != nil:
			slog.Error("Follow-up failed", "error", err)
			answer = model.NewMessage(model.RoleAssistant, model.KindError, "Error generating response: "+err.Error())
		case reply == "":
			answer = model.NewMessage(model.RoleAssistant, model.KindError, "Error generating response: empty reply from model")
		default:
			answer = model.NewMessage(model.RoleAssistant, model.KindText, reply)
		}
		answer.Original = query

		s.store.UpdateFollowUps(func(msgs []model.Message) []model.Message {
			return append(msgs, answer)
		})
	})
}
