package telegram

import (
	"fmt"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/workflow"
)

// UI texts in English
const (
	welcomeText  = "Welcome! Use /search to find .ai domain ideas based on a theme."
	askThemeText = "Please send me a theme to generate domain ideas."
	remindText   = "Please use /search to start a new theme search."
	helpText     = "I only understand /start and /search. Use /search to begin."
	tryAgainText = "Something went wrong on my side. Please try again later."
	quotaText    = "You've reached the search limit for now. Please wait a minute and send your theme again."
	genFailText  = "I couldn't generate domain ideas right now. Please try /search again later."

	cooldownFmt   = "Please wait %d seconds before starting a new search."
	generatingFmt = "Generating domain ideas based on theme: %s...\nChecking availability, please wait..."
)

const registrarURL = "https://www.namecheap.com/domains/registration/results/"

// formatResults renders one line per candidate, in orchestrator order.
func formatResults(results []workflow.Result) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		var status string
		switch r.Verdict {
		case workflow.VerdictAvailable:
			status = "✅ Available"
		case workflow.VerdictTaken:
			status = "❌ Taken"
		default:
			status = "❓ Unknown"
		}
		lines = append(lines, r.Domain+": "+status)
	}
	return strings.Join(lines, "\n")
}

// buyKeyboard returns an inline keyboard with one registration link per
// available candidate, preserving result order. Nil when nothing is available.
func buyKeyboard(results []workflow.Result) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range results {
		if r.Verdict != workflow.VerdictAvailable {
			continue
		}
		link := registrarURL + "?domain=" + url.QueryEscape(r.Domain)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Buy "+r.Domain, link),
		))
	}
	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

func cooldownText(seconds int) string {
	return fmt.Sprintf(cooldownFmt, seconds)
}
