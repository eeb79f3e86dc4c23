package telegram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/usecase"
)

const (
	adminChat int64 = 1000
	userChat  int64 = 42
)

type fakeBot struct {
	updates chan tgbotapi.Update
	fileURL string
	stopped bool
}

func (b *fakeBot) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return b.updates
}

func (b *fakeBot) StopReceivingUpdates() { b.stopped = true }

func (b *fakeBot) GetFileDirectURL(fileID string) (string, error) {
	if b.fileURL == "" {
		return "", errors.New("file not found")
	}
	return b.fileURL + "/" + fileID, nil
}

type fakeConversation struct {
	mu        sync.Mutex
	texts     []entity.TextRequest
	callbacks []entity.CallbackRequest
	failed    []int64
	err       error
	panicMsg  string
}

func (c *fakeConversation) HandleText(ctx context.Context, req entity.TextRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.panicMsg != "" {
		panic(c.panicMsg)
	}
	c.texts = append(c.texts, req)
	return c.err
}

func (c *fakeConversation) HandleCallback(ctx context.Context, req entity.CallbackRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, req)
	return c.err
}

func (c *fakeConversation) Fail(ctx context.Context, chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed = append(c.failed, chatID)
}

type fakeAdmin struct {
	stats       entity.CatalogStats
	imported    []byte
	announce    bool
	statusCalls []string
	hidden      []int64
	importErr   error
}

func (a *fakeAdmin) IsAdmin(chatID int64) bool { return chatID == adminChat }

func (a *fakeAdmin) ImportCars(ctx context.Context, data []byte, filename string, announce bool) (usecase.ImportResult, error) {
	a.imported = data
	a.announce = announce
	if a.importErr != nil {
		return usecase.ImportResult{}, a.importErr
	}
	return usecase.ImportResult{Imported: 3, Skipped: 1}, nil
}

func (a *fakeAdmin) ImportCarsFromFile(ctx context.Context, path string) (usecase.ImportResult, error) {
	return usecase.ImportResult{}, nil
}

func (a *fakeAdmin) Stats(ctx context.Context) (entity.CatalogStats, error) { return a.stats, nil }

func (a *fakeAdmin) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	return []entity.Order{{ID: 1, CarID: 7, Phone: "+996555000000", Status: entity.StatusNew}}, nil
}

func (a *fakeAdmin) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	if _, err := entity.ParseStatus(status); err != nil {
		return err
	}
	if orderID == 404 {
		return entity.ErrNotFound
	}
	a.statusCalls = append(a.statusCalls, status)
	return nil
}

func (a *fakeAdmin) DeactivateCar(ctx context.Context, carID int64) error {
	if carID == 404 {
		return entity.ErrNotFound
	}
	a.hidden = append(a.hidden, carID)
	return nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	sent     map[int64][]string
	answered []string
}

func (n *fakeNotifier) SendText(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.sent == nil {
		n.sent = make(map[int64][]string)
	}
	n.sent[chatID] = append(n.sent[chatID], text)
	return nil
}

func (n *fakeNotifier) Announce(ctx context.Context, chatID int64, photoURL, caption string, keyboard *entity.Keyboard) error {
	return n.SendText(ctx, chatID, caption, keyboard)
}

func (n *fakeNotifier) AnswerCallback(ctx context.Context, callbackID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.answered = append(n.answered, callbackID)
	return nil
}

func (n *fakeNotifier) last(chatID int64) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	msgs := n.sent[chatID]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

type fixture struct {
	bot      *fakeBot
	conv     *fakeConversation
	admin    *fakeAdmin
	notifier *fakeNotifier
	handler  *BotHandler
}

func newFixture() *fixture {
	f := &fixture{
		bot:      &fakeBot{updates: make(chan tgbotapi.Update)},
		conv:     &fakeConversation{},
		admin:    &fakeAdmin{},
		notifier: &fakeNotifier{},
	}
	f.handler = NewBotHandler(f.bot, f.conv, f.admin, usecase.NewPresenter(""), f.notifier)
	return f
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		Chat:      &tgbotapi.Chat{ID: chatID},
		From:      &tgbotapi.User{ID: chatID, UserName: "aziz", FirstName: "Азиз"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmdLen := len(text)
		if i := strings.IndexByte(text, ' '); i > 0 {
			cmdLen = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func TestHandleTextUpdate(t *testing.T) {
	f := newFixture()
	update := textUpdate(userChat, "💰 Продать авто")
	update.Message.Contact = &tgbotapi.Contact{PhoneNumber: " +996555000000 "}

	f.handler.HandleUpdate(context.Background(), update)

	if len(f.conv.texts) != 1 {
		t.Fatalf("HandleText calls = %d", len(f.conv.texts))
	}
	got := f.conv.texts[0]
	if got.ChatID != userChat || got.Text != "💰 Продать авто" || got.ContactPhone != "+996555000000" {
		t.Errorf("request = %+v", got)
	}
	if got.From.Username != "aziz" || got.From.ChatID != userChat {
		t.Errorf("requester = %+v", got.From)
	}
	if len(f.conv.failed) != 0 {
		t.Errorf("unexpected Fail: %v", f.conv.failed)
	}
}

func TestHandleCallbackUpdate(t *testing.T) {
	f := newFixture()
	f.handler.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: userChat},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userChat}},
		Data:    "order_7",
	}})

	if len(f.conv.callbacks) != 1 || f.conv.callbacks[0].Data != "order_7" || f.conv.callbacks[0].ChatID != userChat {
		t.Errorf("callbacks = %+v", f.conv.callbacks)
	}
}

func TestMalformedUpdatesReachGenericError(t *testing.T) {
	tests := []struct {
		name         string
		update       tgbotapi.Update
		wantFail     []int64
		wantAnswered []string
	}{
		{
			name: "callback without message",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", From: &tgbotapi.User{ID: userChat}, Data: "order_7",
			}},
			wantFail:     []int64{userChat},
			wantAnswered: []string{"cb"},
		},
		{
			name: "callback without data",
			update: tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
				ID: "cb", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: userChat}},
			}},
			wantFail:     []int64{userChat},
			wantAnswered: []string{"cb"},
		},
		{
			name:   "message without chat",
			update: tgbotapi.Update{Message: &tgbotapi.Message{Text: "hi"}},
		},
		{
			name:   "empty update",
			update: tgbotapi.Update{UpdateID: 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.handler.HandleUpdate(context.Background(), tt.update)

			if len(f.conv.failed) != len(tt.wantFail) {
				t.Fatalf("Fail calls = %v, want %v", f.conv.failed, tt.wantFail)
			}
			for i := range tt.wantFail {
				if f.conv.failed[i] != tt.wantFail[i] {
					t.Errorf("Fail chat = %d, want %d", f.conv.failed[i], tt.wantFail[i])
				}
			}
			if len(f.conv.texts)+len(f.conv.callbacks) != 0 {
				t.Error("malformed update reached the conversation")
			}
			if !reflect.DeepEqual(f.notifier.answered, tt.wantAnswered) {
				t.Errorf("answered callbacks = %v, want %v", f.notifier.answered, tt.wantAnswered)
			}
		})
	}
}

func TestUseCaseErrorAndPanicAreRecovered(t *testing.T) {
	f := newFixture()
	f.conv.err = errors.New("database is locked")
	f.handler.HandleUpdate(context.Background(), textUpdate(userChat, "hello"))
	if len(f.conv.failed) != 1 || f.conv.failed[0] != userChat {
		t.Errorf("Fail after error = %v", f.conv.failed)
	}

	f = newFixture()
	f.conv.panicMsg = "nil map"
	f.handler.HandleUpdate(context.Background(), textUpdate(userChat, "hello"))
	if len(f.conv.failed) != 1 {
		t.Errorf("Fail after panic = %v", f.conv.failed)
	}
}

func TestAdminCommands(t *testing.T) {
	tests := []struct {
		text     string
		wantText string
	}{
		{text: "/stats", wantText: "Статистика"},
		{text: "/orders", wantText: "#1"},
		{text: "/setstatus 3 completed", wantText: "✅ Заказ #3: completed"},
		{text: "/setstatus 3 shipped", wantText: "Использование"},
		{text: "/setstatus abc new", wantText: "Использование"},
		{text: "/setstatus 404 new", wantText: "не найден"},
		{text: "/hide 5", wantText: "✅ Автомобиль #5"},
		{text: "/hide", wantText: "Использование"},
		{text: "/hide 404", wantText: "не найден"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := newFixture()
			f.admin.stats = entity.CatalogStats{TotalCars: 12, ActiveCars: 10}
			f.handler.HandleUpdate(context.Background(), textUpdate(adminChat, tt.text))

			if got := f.notifier.last(adminChat); !strings.Contains(got, tt.wantText) {
				t.Errorf("reply = %q, want substring %q", got, tt.wantText)
			}
			if len(f.conv.texts) != 0 || len(f.conv.failed) != 0 {
				t.Errorf("admin command reached conversation: texts=%v failed=%v", f.conv.texts, f.conv.failed)
			}
		})
	}
}

func TestAdminCommandFromUserIsConversation(t *testing.T) {
	f := newFixture()
	f.handler.HandleUpdate(context.Background(), textUpdate(userChat, "/stats"))
	if len(f.conv.texts) != 1 || f.notifier.last(userChat) != "" {
		t.Errorf("user /stats handled as admin command")
	}

	f = newFixture()
	f.handler.HandleUpdate(context.Background(), textUpdate(adminChat, "/start"))
	if len(f.conv.texts) != 1 {
		t.Error("admin /start not passed to conversation")
	}
}

func TestAdminDocumentImport(t *testing.T) {
	payload := []byte("PK\x03\x04 fake workbook")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/file-1" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := newFixture()
	f.bot.fileURL = srv.URL
	update := textUpdate(adminChat, "")
	update.Message.Document = &tgbotapi.Document{FileID: "file-1", FileName: "cars.XLSX", FileSize: len(payload)}

	f.handler.HandleUpdate(context.Background(), update)

	if string(f.admin.imported) != string(payload) || !f.admin.announce {
		t.Errorf("imported = %q announce = %v", f.admin.imported, f.admin.announce)
	}
	if got := f.notifier.last(adminChat); !strings.Contains(got, "Добавлено: 3") {
		t.Errorf("reply = %q", got)
	}
}

func TestAdminDocumentRejected(t *testing.T) {
	tests := []struct {
		name string
		doc  *tgbotapi.Document
		want string
	}{
		{name: "wrong extension", doc: &tgbotapi.Document{FileID: "f", FileName: "cars.csv"}, want: ".xlsx"},
		{name: "too large", doc: &tgbotapi.Document{FileID: "f", FileName: "cars.xlsx", FileSize: maxImportFileSize + 1}, want: "5MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			update := textUpdate(adminChat, "")
			update.Message.Document = tt.doc
			f.handler.HandleUpdate(context.Background(), update)

			if f.admin.imported != nil {
				t.Error("file imported")
			}
			if got := f.notifier.last(adminChat); !strings.Contains(got, tt.want) {
				t.Errorf("reply = %q", got)
			}
		})
	}
}

func TestAdminDocumentDownloadFailure(t *testing.T) {
	f := newFixture()
	update := textUpdate(adminChat, "")
	update.Message.Document = &tgbotapi.Document{FileID: "f", FileName: "cars.xlsx"}

	f.handler.HandleUpdate(context.Background(), update)
	if len(f.conv.failed) != 1 || f.conv.failed[0] != adminChat {
		t.Errorf("Fail = %v", f.conv.failed)
	}
}

func TestStartProcessesUntilCancelled(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.handler.Start(ctx) }()

	f.bot.updates <- textUpdate(userChat, "one")
	f.bot.updates <- textUpdate(userChat, "two")
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not stop")
	}

	f.conv.mu.Lock()
	defer f.conv.mu.Unlock()
	if len(f.conv.texts) != 2 || f.conv.texts[0].Text != "one" || f.conv.texts[1].Text != "two" {
		t.Errorf("processed = %+v", f.conv.texts)
	}
	if !f.bot.stopped {
		t.Error("StopReceivingUpdates not called")
	}
}
