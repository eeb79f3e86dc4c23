package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/infrastructure/storage"
)

const (
	testAdminChat int64 = 1000
	testUserChat  int64 = 42
)

type sentMessage struct {
	ChatID   int64
	Text     string
	Photo    string
	Keyboard *entity.Keyboard
}

// fakeNotifier yuborilgan xabarlarni yozib oladi, failChats uchun xato qaytaradi
type fakeNotifier struct {
	mu        sync.Mutex
	sent      []sentMessage
	callbacks []string
	failChats map[int64]bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failChats: make(map[int64]bool)}
}

func (f *fakeNotifier) record(msg sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	if f.failChats[msg.ChatID] {
		return errors.New("Forbidden: bot was kicked from the group chat")
	}
	return nil
}

func (f *fakeNotifier) SendText(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) error {
	return f.record(sentMessage{ChatID: chatID, Text: text, Keyboard: keyboard})
}

func (f *fakeNotifier) Announce(ctx context.Context, chatID int64, photoURL, caption string, keyboard *entity.Keyboard) error {
	return f.record(sentMessage{ChatID: chatID, Text: caption, Photo: photoURL, Keyboard: keyboard})
}

func (f *fakeNotifier) AnswerCallback(ctx context.Context, callbackID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callbacks = append(f.callbacks, callbackID)
	return nil
}

func (f *fakeNotifier) to(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeNotifier) last(chatID int64) sentMessage {
	msgs := f.to(chatID)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.callbacks = nil
}

func (f *fakeNotifier) sawText(chatID int64, substr string) bool {
	for _, m := range f.to(chatID) {
		if strings.Contains(m.Text, substr) {
			return true
		}
	}
	return false
}

// recordingOrders yaratilgan buyurtma va arizalarni saqlab qoladi
type recordingOrders struct {
	repository.OrderRepository
	mu           sync.Mutex
	orders       []entity.Order
	sellRequests []entity.SellRequest
	failCreate   bool
}

func (r *recordingOrders) CreateOrder(ctx context.Context, order *entity.Order) error {
	if r.failCreate {
		return errors.New("database is locked")
	}
	if err := r.OrderRepository.CreateOrder(ctx, order); err != nil {
		return err
	}
	r.mu.Lock()
	r.orders = append(r.orders, *order)
	r.mu.Unlock()
	return nil
}

func (r *recordingOrders) CreateSellRequest(ctx context.Context, req *entity.SellRequest) error {
	if r.failCreate {
		return errors.New("database is locked")
	}
	if err := r.OrderRepository.CreateSellRequest(ctx, req); err != nil {
		return err
	}
	r.mu.Lock()
	r.sellRequests = append(r.sellRequests, *req)
	r.mu.Unlock()
	return nil
}

type harness struct {
	t           *testing.T
	ctx         context.Context
	catalogRepo repository.CatalogRepository
	orders      *recordingOrders
	sessions    repository.SessionRepository
	notifier    *fakeNotifier
	presenter   *Presenter
	catalog     CatalogUseCase
	conv        ConversationUseCase
	admin       AdminUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		catalogRepo: storage.NewMemoryCatalogRepository(),
		orders:      &recordingOrders{OrderRepository: storage.NewMemoryOrderRepository()},
		sessions:    storage.NewMemorySessionRepository(),
		notifier:    newFakeNotifier(),
		presenter:   NewPresenter("https://suvtekin.example"),
	}
	h.catalog = NewCatalogUseCase(h.catalogRepo, h.notifier, h.presenter, testAdminChat)
	h.conv = NewConversationUseCase(h.sessions, h.orders, h.catalog, h.notifier, h.presenter, ConversationConfig{
		AdminChatID:  testAdminChat,
		ContactPhone: "+996 555 123 456",
		ContactEmail: "info@suvtekin.kg",
	})
	h.admin = NewAdminUseCase(testAdminChat, h.catalog, h.catalogRepo, h.orders, nil)
	if err := h.catalog.Seed(h.ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return h
}

func (h *harness) text(text string) {
	h.t.Helper()
	req := entity.TextRequest{
		ChatID: testUserChat,
		From:   entity.Requester{ChatID: testUserChat, Username: "aziz", FirstName: "Азиз"},
		Text:   text,
	}
	if err := h.conv.HandleText(h.ctx, req); err != nil {
		h.t.Fatalf("HandleText(%q): %v", text, err)
	}
}

func (h *harness) callback(data string) {
	h.t.Helper()
	req := entity.CallbackRequest{ID: "cb-" + data, ChatID: testUserChat, Data: data}
	if err := h.conv.HandleCallback(h.ctx, req); err != nil {
		h.t.Fatalf("HandleCallback(%q): %v", data, err)
	}
}

func (h *harness) setLang(lang entity.Lang) {
	h.t.Helper()
	session := entity.NewSession(testUserChat)
	session.Lang = lang
	if err := h.sessions.Set(h.ctx, *session); err != nil {
		h.t.Fatalf("Set session: %v", err)
	}
}

func (h *harness) session() entity.Session {
	h.t.Helper()
	s, err := h.sessions.Get(h.ctx, testUserChat)
	if err != nil {
		h.t.Fatalf("Get session: %v", err)
	}
	return *s
}

func (h *harness) addCar(car entity.Car) entity.Car {
	h.t.Helper()
	if err := h.catalogRepo.CreateCar(h.ctx, &car); err != nil {
		h.t.Fatalf("CreateCar: %v", err)
	}
	return car
}
