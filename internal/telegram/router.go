package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/session"
	"github.com/oscarthedev15/domain-checker-tgbot/internal/store"
	"github.com/oscarthedev15/domain-checker-tgbot/internal/workflow"
)

// botAPI is the slice of tgbotapi.BotAPI the router needs; narrowed so
// handlers can be tested with a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Router maps Telegram updates to session events and drives the
// read → transition → write cycle for each user.
type Router struct {
	tg     botAPI
	log    *zap.Logger
	repo   store.Repo
	flow   *workflow.Orchestrator
	limits session.Limits
	now    func() time.Time

	// locks serializes handling per chat: two near-simultaneous messages
	// from one user must not both read the same stale session. Different
	// chats proceed in parallel.
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewRouter creates a new Telegram router.
func NewRouter(tg botAPI, log *zap.Logger, repo store.Repo, flow *workflow.Orchestrator, limits session.Limits) *Router {
	return &Router{
		tg:     tg,
		log:    log,
		repo:   repo,
		flow:   flow,
		limits: limits,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  make(map[int64]*sync.Mutex),
	}
}

// userLock returns the mutex guarding one chat's read-modify-write section,
// creating it on first contact. Lock entries are never removed; the map is
// bounded by the number of distinct users, like the session table itself.
func (r *Router) userLock(chatID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[chatID] = l
	}
	return l
}

// eventFromMessage reduces a Telegram message to a tagged session event.
func eventFromMessage(msg *tgbotapi.Message) session.Event {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return session.Event{Kind: session.EventStart}
		case "search":
			return session.Event{Kind: session.EventSearch}
		default:
			return session.Event{Kind: session.EventUnknownCommand}
		}
	}
	return session.Event{Kind: session.EventText, Text: strings.TrimSpace(msg.Text)}
}

// HandleUpdate processes a single update. Safe for concurrent use; updates
// for the same chat serialize on the per-user lock from the session read
// through the final write.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	// Stickers, photos and other non-text payloads carry no text to act on.
	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == "" {
		return
	}

	chatID := msg.Chat.ID
	ev := eventFromMessage(msg)

	lock := r.userLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	now := r.now()
	s, err := r.loadSession(ctx, chatID, now)
	if err != nil {
		// Storage failure: never guess session state, never reset throttles.
		r.log.Error("load session failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, tryAgainText)
		return
	}

	out := session.Apply(*s, ev, now, r.limits)

	if out.Action == session.ActionRunSearch {
		r.runSearch(ctx, chatID, out)
		return
	}

	if err := r.repo.PutSession(ctx, &out.Next); err != nil {
		r.log.Error("put session failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, tryAgainText)
		return
	}
	r.reply(chatID, out)
}

// loadSession reads the chat's session, lazily creating a fresh idle one on
// first contact. A storage error is returned as-is and must not be treated
// as absence.
func (r *Router) loadSession(ctx context.Context, chatID int64, now time.Time) (*session.Session, error) {
	s, err := r.repo.GetSession(ctx, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return session.New(chatID, now), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
