package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/log"
	"github.com/suvtekin/auto-bot/internal/usecase"
)

const (
	// maxImportFileSize admin yuklaydigan Excel fayl chegarasi (5MB)
	maxImportFileSize = 5 * 1024 * 1024
	recentOrdersLimit = 10
)

// Bot handlerga kerakli tgbotapi.BotAPI metodlari
type Bot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetFileDirectURL(fileID string) (string, error)
}

// BotHandler Telegram bot handler
type BotHandler struct {
	bot          Bot
	conversation usecase.ConversationUseCase
	admin        usecase.AdminUseCase
	presenter    *usecase.Presenter
	notifier     repository.Notifier
	httpClient   *http.Client
}

// NewBotHandler yangi bot handler yaratish
func NewBotHandler(
	bot Bot,
	conversation usecase.ConversationUseCase,
	admin usecase.AdminUseCase,
	presenter *usecase.Presenter,
	notifier repository.Notifier,
) *BotHandler {
	return &BotHandler{
		bot:          bot,
		conversation: conversation,
		admin:        admin,
		presenter:    presenter,
		notifier:     notifier,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Start long polling. Update lar ketma-ket, bittadan qayta ishlanadi.
func (h *BotHandler) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	log.GetLogger().Info("bot polling started")

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			log.GetLogger().Info("bot polling stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate bitta update ni oxirigacha qayta ishlash. Xato yoki panic bo'lsa
// foydalanuvchiga umumiy xato xabari yuboriladi.
func (h *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	logger := log.GetLogger().
		WithField("correlation_id", uuid.New().String()).
		WithField("update_id", update.UpdateID)
	ctx = log.NewContext(ctx, logger)

	chatID := updateChatID(update)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				Error("update handler panicked")
			h.fail(ctx, chatID)
		}
	}()

	if err := h.dispatch(ctx, update); err != nil {
		logger.WithError(err).WithField("chat_id", chatID).Error("update handling failed")
		h.fail(ctx, chatID)
	}
}

func (h *BotHandler) fail(ctx context.Context, chatID int64) {
	if chatID == 0 {
		return
	}
	h.conversation.Fail(ctx, chatID)
}

func (h *BotHandler) dispatch(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		req, err := parseCallback(update.CallbackQuery)
		if err != nil {
			h.answerCallback(ctx, update.CallbackQuery.ID)
			return err
		}
		return h.conversation.HandleCallback(ctx, req)

	case update.Message != nil:
		req, err := parseMessage(update.Message)
		if err != nil {
			return err
		}
		if h.admin.IsAdmin(req.ChatID) {
			if handled, err := h.handleAdmin(ctx, update.Message); handled {
				return err
			}
		}
		return h.conversation.HandleText(ctx, req)

	default:
		log.FromContext(ctx).Debug("update without message or callback skipped")
		return nil
	}
}

// answerCallback yaroqsiz callback uchun spinnerni to'xtatadi
func (h *BotHandler) answerCallback(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	if err := h.notifier.AnswerCallback(ctx, callbackID); err != nil {
		log.FromContext(ctx).WithError(err).Warn("answer callback failed")
	}
}

// updateChatID xato xabari yuboriladigan chat. Aniqlab bo'lmasa 0.
func updateChatID(update tgbotapi.Update) int64 {
	switch {
	case update.CallbackQuery != nil:
		if m := update.CallbackQuery.Message; m != nil && m.Chat != nil {
			return m.Chat.ID
		}
		if update.CallbackQuery.From != nil {
			return update.CallbackQuery.From.ID
		}
	case update.Message != nil:
		if update.Message.Chat != nil {
			return update.Message.Chat.ID
		}
	}
	return 0
}

// parseMessage xabarni TextRequest ga aylantirish
func parseMessage(msg *tgbotapi.Message) (entity.TextRequest, error) {
	if msg.Chat == nil {
		return entity.TextRequest{}, fmt.Errorf("%w: message %d without chat", entity.ErrMalformedUpdate, msg.MessageID)
	}

	req := entity.TextRequest{
		ChatID: msg.Chat.ID,
		From:   requesterFrom(msg.Chat.ID, msg.From),
		Text:   msg.Text,
	}
	if msg.Contact != nil {
		req.ContactPhone = strings.TrimSpace(msg.Contact.PhoneNumber)
	}
	return req, nil
}

// parseCallback callback_query ni CallbackRequest ga aylantirish
func parseCallback(cq *tgbotapi.CallbackQuery) (entity.CallbackRequest, error) {
	if cq.Message == nil || cq.Message.Chat == nil {
		return entity.CallbackRequest{}, fmt.Errorf("%w: callback %s without message", entity.ErrMalformedUpdate, cq.ID)
	}
	if strings.TrimSpace(cq.Data) == "" {
		return entity.CallbackRequest{}, fmt.Errorf("%w: callback %s without data", entity.ErrMalformedUpdate, cq.ID)
	}

	chatID := cq.Message.Chat.ID
	return entity.CallbackRequest{
		ID:     cq.ID,
		ChatID: chatID,
		From:   requesterFrom(chatID, cq.From),
		Data:   cq.Data,
	}, nil
}

func requesterFrom(chatID int64, user *tgbotapi.User) entity.Requester {
	r := entity.Requester{ChatID: chatID}
	if user != nil {
		r.Username = user.UserName
		r.FirstName = strings.TrimSpace(user.FirstName + " " + user.LastName)
	}
	return r
}

// handleAdmin admin chat komandalari va Excel yuklash. handled=false bo'lsa
// xabar oddiy suhbat sifatida davom etadi.
func (h *BotHandler) handleAdmin(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	chatID := msg.Chat.ID

	if msg.Document != nil {
		return true, h.handleDocument(ctx, msg)
	}
	if !msg.IsCommand() {
		return false, nil
	}

	args := strings.Fields(msg.CommandArguments())
	switch msg.Command() {
	case "stats":
		stats, err := h.admin.Stats(ctx)
		if err != nil {
			return true, err
		}
		h.reply(ctx, chatID, h.presenter.AdminStats(stats))
	case "orders":
		orders, err := h.admin.RecentOrders(ctx, recentOrdersLimit)
		if err != nil {
			return true, err
		}
		h.reply(ctx, chatID, h.presenter.AdminOrders(orders))
	case "setstatus":
		return true, h.handleSetStatus(ctx, chatID, args)
	case "hide":
		return true, h.handleHide(ctx, chatID, args)
	default:
		return false, nil
	}
	return true, nil
}

func (h *BotHandler) handleSetStatus(ctx context.Context, chatID int64, args []string) error {
	const usage = "Использование: /setstatus &lt;id&gt; &lt;new|processing|completed|cancelled&gt;"
	if len(args) != 2 {
		h.reply(ctx, chatID, usage)
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, usage)
		return nil
	}

	switch err := h.admin.SetOrderStatus(ctx, id, args[1]); {
	case errors.Is(err, entity.ErrInvalidStatus):
		h.reply(ctx, chatID, usage)
	case errors.Is(err, entity.ErrNotFound):
		h.reply(ctx, chatID, fmt.Sprintf("❌ Заказ #%d не найден", id))
	case err != nil:
		return err
	default:
		h.reply(ctx, chatID, fmt.Sprintf("✅ Заказ #%d: %s", id, html.EscapeString(strings.ToLower(args[1]))))
	}
	return nil
}

func (h *BotHandler) handleHide(ctx context.Context, chatID int64, args []string) error {
	const usage = "Использование: /hide &lt;id автомобиля&gt;"
	if len(args) != 1 {
		h.reply(ctx, chatID, usage)
		return nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, chatID, usage)
		return nil
	}

	switch err := h.admin.DeactivateCar(ctx, id); {
	case errors.Is(err, entity.ErrNotFound):
		h.reply(ctx, chatID, fmt.Sprintf("❌ Автомобиль #%d не найден", id))
	case err != nil:
		return err
	default:
		h.reply(ctx, chatID, fmt.Sprintf("✅ Автомобиль #%d скрыт из каталога", id))
	}
	return nil
}

// handleDocument admin yuborgan Excel faylni import qilish
func (h *BotHandler) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	doc := msg.Document

	if !strings.HasSuffix(strings.ToLower(doc.FileName), ".xlsx") {
		h.reply(ctx, chatID, "❌ Принимаются только файлы Excel (.xlsx)")
		return nil
	}
	if doc.FileSize > maxImportFileSize {
		h.reply(ctx, chatID, "❌ Размер файла не должен превышать 5MB")
		return nil
	}

	h.reply(ctx, chatID, "⏳ Файл загружается и обрабатывается...")

	data, err := h.downloadFile(ctx, doc.FileID)
	if err != nil {
		return fmt.Errorf("download %s: %w", doc.FileName, err)
	}

	result, err := h.admin.ImportCars(ctx, data, doc.FileName, true)
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("file", doc.FileName).Warn("car import failed")
		h.reply(ctx, chatID, "❌ Ошибка импорта: "+html.EscapeString(err.Error()))
		return nil
	}

	h.reply(ctx, chatID, fmt.Sprintf("✅ Каталог обновлён\n\nДобавлено: %d\nПропущено: %d\nФайл: %s",
		result.Imported, result.Skipped, html.EscapeString(doc.FileName)))
	return nil
}

// downloadFile Telegram dan faylni yuklash
func (h *BotHandler) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImportFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxImportFileSize)
	}
	return data, nil
}

func (h *BotHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.notifier.SendText(ctx, chatID, text, nil); err != nil {
		log.FromContext(ctx).WithError(err).WithField("chat_id", chatID).Warn("admin reply failed")
	}
}
