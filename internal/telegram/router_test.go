package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/oscarthedev15/domain-checker-tgbot/internal/session"
	"github.com/oscarthedev15/domain-checker-tgbot/internal/store"
	"github.com/oscarthedev15/domain-checker-tgbot/internal/workflow"
)

// --- fakes ---

type fakeBot struct {
	mu     sync.Mutex
	sent   []tgbotapi.Chattable
	nextID int
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeBot) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if e, ok := f.sent[i].(tgbotapi.EditMessageTextConfig); ok {
			return e
		}
	}
	t.Fatal("no edit message sent")
	return tgbotapi.EditMessageTextConfig{}
}

type memRepo struct {
	mu       sync.Mutex
	sessions map[int64]session.Session
	getErr   error
	putErr   error
	puts     int
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[int64]session.Session)}
}

func (m *memRepo) GetSession(_ context.Context, userID int64) (*session.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.sessions[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := s
	return &cp, nil
}

func (m *memRepo) PutSession(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.sessions[s.UserID] = *s
	return nil
}

func (m *memRepo) Close() error { return nil }

type scriptedGenerator struct {
	mu      sync.Mutex
	domains []string
	err     error
	calls   int
}

func (g *scriptedGenerator) Generate(_ context.Context, _ string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	return g.domains, g.err
}

type scriptedChecker struct{ available map[string]bool }

func (c *scriptedChecker) Check(_ context.Context, domain string) (bool, error) {
	return c.available[domain], nil
}

type fixture struct {
	bot   *fakeBot
	repo  *memRepo
	gen   *scriptedGenerator
	r     *Router
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bot:   &fakeBot{},
		repo:  newMemRepo(),
		gen:   &scriptedGenerator{domains: []string{"chelsea.ai", "liverpool.ai", "manutd.ai"}},
		clock: time.Date(2025, time.May, 5, 12, 0, 0, 0, time.UTC),
	}
	chk := &scriptedChecker{available: map[string]bool{"liverpool.ai": true, "manutd.ai": true}}
	flow := workflow.New(f.gen, chk, zap.NewNop(), 5*time.Second)
	f.r = NewRouter(f.bot, zap.NewNop(), f.repo, flow, session.DefaultLimits())
	f.r.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmd := strings.TrimPrefix(strings.Fields(text)[0], "/")
		msg.Entities = []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(cmd) + 1},
		}
	}
	return tgbotapi.Update{Message: msg}
}

// --- tests ---

func TestStart_WelcomesAndPersistsIdleSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/start"))

	texts := f.bot.texts()
	if len(texts) != 1 || texts[0] != welcomeText {
		t.Fatalf("want welcome reply, got %v", texts)
	}
	s, err := f.repo.GetSession(ctx, 1)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if s.State != session.StateIdle {
		t.Fatalf("want idle, got %q", s.State)
	}
}

func TestSearch_AsksForThemeAndPersistsAwaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))

	texts := f.bot.texts()
	if len(texts) != 1 || texts[0] != askThemeText {
		t.Fatalf("want theme prompt, got %v", texts)
	}
	s, _ := f.repo.GetSession(ctx, 1)
	if s.State != session.StateAwaitingTheme {
		t.Fatalf("want awaiting_theme persisted, got %q", s.State)
	}
	if !s.LastSearchAt.Equal(f.clock) {
		t.Fatal("cooldown clock not persisted")
	}
}

func TestSearch_SecondWithinCooldownGetsWaitHint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))
	before, _ := f.repo.GetSession(ctx, 1)

	f.advance(10 * time.Second)
	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))

	texts := f.bot.texts()
	if len(texts) != 2 {
		t.Fatalf("want 2 replies, got %v", texts)
	}
	if texts[1] != cooldownText(50) {
		t.Fatalf("want 50s wait notice, got %q", texts[1])
	}
	after, _ := f.repo.GetSession(ctx, 1)
	if *after != *before {
		t.Fatal("rejected /search changed persisted state")
	}
}

func TestThemeSubmission_EndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))
	f.advance(5 * time.Second)
	f.r.HandleUpdate(ctx, textUpdate(1, "soccer"))

	edit := f.bot.lastEdit(t)
	for _, want := range []string{
		"chelsea.ai: ❌ Taken",
		"liverpool.ai: ✅ Available",
		"manutd.ai: ✅ Available",
	} {
		if !strings.Contains(edit.Text, want) {
			t.Fatalf("result text missing %q:\n%s", want, edit.Text)
		}
	}

	// Buy buttons only for the two available candidates, in order.
	if edit.ReplyMarkup == nil {
		t.Fatal("no buy keyboard attached")
	}
	rows := edit.ReplyMarkup.InlineKeyboard
	if len(rows) != 2 {
		t.Fatalf("want 2 buy buttons, got %d", len(rows))
	}
	if !strings.Contains(rows[0][0].Text, "liverpool.ai") || !strings.Contains(rows[1][0].Text, "manutd.ai") {
		t.Fatalf("buy buttons out of order: %v", rows)
	}

	s, _ := f.repo.GetSession(ctx, 1)
	if s.State != session.StateIdle {
		t.Fatalf("session not back to idle: %q", s.State)
	}
	if s.WindowCount != 1 {
		t.Fatalf("quota not charged: %d", s.WindowCount)
	}
}

func TestThemeQuota_FourthSubmissionRejectedWithoutGeneration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lim := session.DefaultLimits()

	for i := 0; i < lim.MaxPerWindow; i++ {
		// Re-arm /search after each consumed theme; jump past the
		// cooldown but keep everything inside one quota window... which
		// is impossible with equal cooldown and window lengths, so
		// pre-seed the awaiting state directly instead.
		s := session.New(1, f.clock)
		s.State = session.StateAwaitingTheme
		s.LastSearchAt = f.clock
		s.WindowStart = f.clock
		s.WindowCount = i
		if err := f.repo.PutSession(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
		f.r.HandleUpdate(ctx, textUpdate(1, "soccer"))
	}
	if f.gen.calls != lim.MaxPerWindow {
		t.Fatalf("want %d generator calls, got %d", lim.MaxPerWindow, f.gen.calls)
	}

	s := session.New(1, f.clock)
	s.State = session.StateAwaitingTheme
	s.LastSearchAt = f.clock
	s.WindowStart = f.clock
	s.WindowCount = lim.MaxPerWindow
	_ = f.repo.PutSession(ctx, s)

	f.r.HandleUpdate(ctx, textUpdate(1, "one more"))

	if f.gen.calls != lim.MaxPerWindow {
		t.Fatalf("rejected submission still invoked generator: %d calls", f.gen.calls)
	}
	texts := f.bot.texts()
	if texts[len(texts)-1] != quotaText {
		t.Fatalf("want quota notice, got %q", texts[len(texts)-1])
	}
	got, _ := f.repo.GetSession(ctx, 1)
	if got.State != session.StateAwaitingTheme {
		t.Fatal("quota rejection consumed the pending theme")
	}
}

func TestFreeText_WhileIdleGetsReminder(t *testing.T) {
	f := newFixture(t)

	f.r.HandleUpdate(context.Background(), textUpdate(1, "hello there"))

	texts := f.bot.texts()
	if len(texts) != 1 || texts[0] != remindText {
		t.Fatalf("want reminder, got %v", texts)
	}
	if f.gen.calls != 0 {
		t.Fatal("idle chatter reached the generator")
	}
}

func TestUnknownCommand_GetsHelp(t *testing.T) {
	f := newFixture(t)

	f.r.HandleUpdate(context.Background(), textUpdate(1, "/frobnicate"))

	texts := f.bot.texts()
	if len(texts) != 1 || texts[0] != helpText {
		t.Fatalf("want help, got %v", texts)
	}
}

func TestStorageFailure_RepliesTryAgainAndWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.repo.getErr = errors.New("disk on fire")

	f.r.HandleUpdate(context.Background(), textUpdate(1, "/search"))

	texts := f.bot.texts()
	if len(texts) != 1 || texts[0] != tryAgainText {
		t.Fatalf("want try-again reply, got %v", texts)
	}
	if f.repo.puts != 0 {
		t.Fatal("handler wrote state despite storage failure")
	}
}

func TestGenerationFailure_SessionIdleAndQuotaCharged(t *testing.T) {
	f := newFixture(t)
	f.gen.err = errors.New("model down")
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))
	f.advance(5 * time.Second)
	f.r.HandleUpdate(ctx, textUpdate(1, "soccer"))

	edit := f.bot.lastEdit(t)
	if edit.Text != genFailText {
		t.Fatalf("want generation failure notice, got %q", edit.Text)
	}
	s, _ := f.repo.GetSession(ctx, 1)
	if s.State != session.StateIdle {
		t.Fatalf("want idle after failed workflow, got %q", s.State)
	}
	if s.WindowCount != 1 {
		t.Fatalf("quota not charged on failed workflow: %d", s.WindowCount)
	}
}

func TestRestart_AwaitingThemeSurvivesNewRouter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.r.HandleUpdate(ctx, textUpdate(1, "/search"))

	// New router over the same repo, as after a process restart.
	chk := &scriptedChecker{available: map[string]bool{"liverpool.ai": true, "manutd.ai": true}}
	flow := workflow.New(f.gen, chk, zap.NewNop(), 5*time.Second)
	bot2 := &fakeBot{}
	r2 := NewRouter(bot2, zap.NewNop(), f.repo, flow, session.DefaultLimits())
	r2.now = func() time.Time { return f.clock.Add(5 * time.Second) }

	r2.HandleUpdate(ctx, textUpdate(1, "soccer"))

	edit := bot2.lastEdit(t)
	if !strings.Contains(edit.Text, "liverpool.ai: ✅ Available") {
		t.Fatalf("workflow did not complete after restart:\n%s", edit.Text)
	}
}

func TestConcurrentMessages_SameUserSerialized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.r.HandleUpdate(ctx, textUpdate(1, "/search"))
		}()
	}
	wg.Wait()

	// Exactly one /search may pass the cooldown gate; the rest must see
	// the updated LastSearchAt and be rejected.
	prompts := 0
	for _, txt := range f.bot.texts() {
		if txt == askThemeText {
			prompts++
		}
	}
	if prompts != 1 {
		t.Fatalf("lost update: %d /search commands admitted", prompts)
	}
}
