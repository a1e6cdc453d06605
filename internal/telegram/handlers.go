package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/session"
)

// reply sends the outbound message implied by a non-workflow outcome.
func (r *Router) reply(chatID int64, out session.Outcome) {
	switch out.Action {
	case session.ActionWelcome:
		r.sendText(chatID, welcomeText)
	case session.ActionAskTheme:
		r.sendText(chatID, askThemeText)
	case session.ActionCooldownWait:
		// Expected throttling, not an error.
		r.log.Info("search throttled",
			zap.Int64("chatID", chatID), zap.Duration("wait", out.Wait))
		r.sendText(chatID, cooldownText(int(out.Wait.Seconds())))
	case session.ActionQuotaExceeded:
		r.log.Info("theme quota exceeded", zap.Int64("chatID", chatID))
		r.sendText(chatID, quotaText)
	case session.ActionRemindSearch:
		r.sendText(chatID, remindText)
	case session.ActionHelp:
		r.sendText(chatID, helpText)
	}
}

// runSearch drives one accepted theme submission: placeholder message,
// generate → check, persist the already-transitioned session, then edit the
// placeholder with the results. The session write happens before the final
// send so state consistency never depends on transport success.
func (r *Router) runSearch(ctx context.Context, chatID int64, out session.Outcome) {
	placeholderID := r.sendPlaceholder(chatID, out.Theme)

	results, runErr := r.flow.Run(ctx, out.Theme)
	if runErr != nil {
		r.log.Error("workflow failed",
			zap.Int64("chatID", chatID), zap.String("theme", out.Theme), zap.Error(runErr))
	}

	// The quota was charged when the submission was consumed, so the
	// session persists as idle with the charge even when generation failed.
	if err := r.repo.PutSession(ctx, &out.Next); err != nil {
		r.log.Error("put session failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.deliver(chatID, placeholderID, tryAgainText, nil)
		return
	}

	if runErr != nil {
		r.deliver(chatID, placeholderID, genFailText, nil)
		return
	}
	r.deliver(chatID, placeholderID, formatResults(results), buyKeyboard(results))
}

// sendPlaceholder posts the "please wait" message and returns its ID, or 0
// when sending failed (the final reply falls back to a fresh message then).
func (r *Router) sendPlaceholder(chatID int64, theme string) int {
	msg, err := r.tg.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(generatingFmt, theme)))
	if err != nil {
		r.log.Warn("placeholder send failed", zap.Int64("chatID", chatID), zap.Error(err))
		return 0
	}
	return msg.MessageID
}

// deliver edits the placeholder in place when one exists, otherwise sends a
// new message. Send failures are logged; state was already persisted.
func (r *Router) deliver(chatID int64, placeholderID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	var c tgbotapi.Chattable
	if placeholderID != 0 {
		edit := tgbotapi.NewEditMessageText(chatID, placeholderID, text)
		edit.ReplyMarkup = kb
		c = edit
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		if kb != nil {
			msg.ReplyMarkup = kb
		}
		c = msg
	}
	if _, err := r.tg.Send(c); err != nil {
		r.log.Error("send results failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}

func (r *Router) sendText(chatID int64, text string) {
	if _, err := r.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Error("send failed", zap.Int64("chatID", chatID), zap.Error(err))
	}
}
