package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/i18n"
	"github.com/suvtekin/auto-bot/internal/log"
)

// ConversationUseCase chatdagi menyu va wizardlarni boshqaradi
type ConversationUseCase interface {
	// HandleText matnli xabar yoki kontakt
	HandleText(ctx context.Context, req entity.TextRequest) error

	// HandleCallback inline tugma bosilishi
	HandleCallback(ctx context.Context, req entity.CallbackRequest) error

	// Fail umumiy xato xabari, wizard tozalanadi va asosiy menyu ko'rsatiladi
	Fail(ctx context.Context, chatID int64)
}

// ConversationConfig suhbat sozlamalari
type ConversationConfig struct {
	AdminChatID  int64
	ContactPhone string
	ContactEmail string
}

type conversationUseCase struct {
	sessions  repository.SessionRepository
	orders    repository.OrderRepository
	catalog   CatalogUseCase
	notifier  repository.Notifier
	presenter *Presenter
	cfg       ConversationConfig
}

// NewConversationUseCase yangi ConversationUseCase yaratish
func NewConversationUseCase(
	sessions repository.SessionRepository,
	orders repository.OrderRepository,
	catalog CatalogUseCase,
	notifier repository.Notifier,
	presenter *Presenter,
	cfg ConversationConfig,
) ConversationUseCase {
	return &conversationUseCase{
		sessions:  sessions,
		orders:    orders,
		catalog:   catalog,
		notifier:  notifier,
		presenter: presenter,
		cfg:       cfg,
	}
}

// sellStep sotish wizardining bitta bosqichi
type sellStep struct {
	prompt i18n.Key
	next   entity.Step
	// apply javobni draftga yozadi, xato bo'lsa foydalanuvchiga ko'rsatiladigan kalit qaytadi
	apply func(draft *entity.SellDraft, answer string) (i18n.Key, bool)
}

var sellSteps = map[entity.Step]sellStep{
	entity.StepBrand: {prompt: i18n.SellAskBrand, next: entity.StepModel, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		return requireText(&d.Brand, a)
	}},
	entity.StepModel: {prompt: i18n.SellAskModel, next: entity.StepYear, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		return requireText(&d.Model, a)
	}},
	entity.StepYear: {prompt: i18n.SellAskYear, next: entity.StepMileage, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		year, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return i18n.InvalidYear, false
		}
		d.Year = year
		return "", true
	}},
	entity.StepMileage: {prompt: i18n.SellAskMileage, next: entity.StepPrice, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		mileage, err := strconv.Atoi(stripSpaces(a))
		if err != nil {
			return i18n.InvalidMileage, false
		}
		d.Mileage = mileage
		return "", true
	}},
	entity.StepPrice: {prompt: i18n.SellAskPrice, next: entity.StepDescription, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		price, err := strconv.ParseFloat(strings.TrimPrefix(stripSpaces(a), "$"), 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			return i18n.InvalidPrice, false
		}
		d.Price = price
		return "", true
	}},
	entity.StepDescription: {prompt: i18n.SellAskDescription, next: entity.StepPhone, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		return requireText(&d.Description, a)
	}},
	entity.StepPhone: {prompt: i18n.SellAskPhone, next: entity.StepNone, apply: func(d *entity.SellDraft, a string) (i18n.Key, bool) {
		return requireText(&d.Phone, a)
	}},
}

func requireText(dst *string, answer string) (i18n.Key, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return i18n.EmptyAnswer, false
	}
	*dst = answer
	return "", true
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// loadSession sessiyani olish, yo'q bo'lsa yangisi
func (u *conversationUseCase) loadSession(ctx context.Context, chatID int64) (*entity.Session, error) {
	session, err := u.sessions.Get(ctx, chatID)
	if errors.Is(err, entity.ErrNotFound) {
		return entity.NewSession(chatID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %d: %w", chatID, err)
	}
	return session, nil
}

func (u *conversationUseCase) saveSession(ctx context.Context, session *entity.Session) error {
	if err := u.sessions.Set(ctx, *session); err != nil {
		return fmt.Errorf("save session %d: %w", session.ChatID, err)
	}
	return nil
}

// send yuborish xatolari log qilinadi va yutiladi
func (u *conversationUseCase) send(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) {
	if err := u.notifier.SendText(ctx, chatID, text, keyboard); err != nil {
		log.FromContext(ctx).WithError(err).WithField("chat_id", chatID).Warn("send message failed")
	}
}

func (u *conversationUseCase) sendMainMenu(ctx context.Context, chatID int64, lang entity.Lang) {
	text, kb := u.presenter.MainMenu(lang)
	u.send(ctx, chatID, text, kb)
}

func (u *conversationUseCase) promptLanguage(ctx context.Context, chatID int64) {
	u.send(ctx, chatID, i18n.ChooseLanguage, u.presenter.LanguageKeyboard())
}

func (u *conversationUseCase) notifyAdmin(ctx context.Context, text string) {
	if u.cfg.AdminChatID == 0 {
		return
	}
	if err := u.notifier.SendText(ctx, u.cfg.AdminChatID, text, nil); err != nil {
		log.FromContext(ctx).WithError(err).WithField("admin_chat_id", u.cfg.AdminChatID).Error("admin notification failed")
	}
}

// HandleText matnli xabarni qayta ishlash
func (u *conversationUseCase) HandleText(ctx context.Context, req entity.TextRequest) error {
	session, err := u.loadSession(ctx, req.ChatID)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(req.Text)

	if !session.Lang.Valid() {
		return u.selectLanguage(ctx, session, text)
	}
	lang := session.Lang

	if i18n.IsCancel(text) {
		return u.cancel(ctx, session)
	}

	switch {
	case text == "/start":
		session.ResetWizard()
		if err := u.saveSession(ctx, session); err != nil {
			return err
		}
		u.send(ctx, req.ChatID, i18n.T(lang, i18n.Welcome), u.presenter.MainKeyboard(lang))
		return nil
	case text == "/language" || i18n.IsButton(text, i18n.BtnLanguage):
		if err := u.sessions.Clear(ctx, req.ChatID); err != nil {
			return fmt.Errorf("clear session %d: %w", req.ChatID, err)
		}
		u.promptLanguage(ctx, req.ChatID)
		return nil
	case text == "/help":
		u.send(ctx, req.ChatID, i18n.T(lang, i18n.Help), nil)
		return nil
	case text == "/cars":
		return u.showLatest(ctx, req.ChatID, lang)
	}

	if session.InWizard() {
		return u.handleStep(ctx, session, req)
	}

	switch {
	case i18n.IsButton(text, i18n.BtnCatalog):
		return u.showCatalogMenu(ctx, req.ChatID, lang)
	case i18n.IsButton(text, i18n.BtnSell):
		return u.startSell(ctx, session)
	case i18n.IsButton(text, i18n.BtnContacts):
		u.send(ctx, req.ChatID, i18n.T(lang, i18n.Contacts, u.cfg.ContactPhone, u.cfg.ContactEmail), nil)
		return nil
	case i18n.IsButton(text, i18n.BtnHelp):
		u.send(ctx, req.ChatID, i18n.T(lang, i18n.Help), nil)
		return nil
	default:
		u.send(ctx, req.ChatID, i18n.T(lang, i18n.NotUnderstood), u.presenter.MainKeyboard(lang))
		return nil
	}
}

// selectLanguage til tanlanmagan chatda har bir xabar til tanlash urinishi
func (u *conversationUseCase) selectLanguage(ctx context.Context, session *entity.Session, text string) error {
	lang, ok := i18n.ParseLang(text)
	if !ok {
		u.promptLanguage(ctx, session.ChatID)
		return nil
	}

	session.Lang = lang
	session.ResetWizard()
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	u.send(ctx, session.ChatID, i18n.T(lang, i18n.LanguageSet), nil)
	u.send(ctx, session.ChatID, i18n.T(lang, i18n.Welcome), u.presenter.MainKeyboard(lang))
	return nil
}

func (u *conversationUseCase) cancel(ctx context.Context, session *entity.Session) error {
	session.ResetWizard()
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	u.send(ctx, session.ChatID, i18n.T(session.Lang, i18n.Cancelled), nil)
	u.sendMainMenu(ctx, session.ChatID, session.Lang)
	return nil
}

// handleStep joriy wizard bosqichiga javob
func (u *conversationUseCase) handleStep(ctx context.Context, session *entity.Session, req entity.TextRequest) error {
	answer := req.Text
	if session.Step == entity.StepPhone && req.ContactPhone != "" {
		answer = req.ContactPhone
	}

	switch session.Action {
	case entity.ActionOrder:
		return u.handleOrderPhone(ctx, session, req.From, answer)
	case entity.ActionSellCar:
		return u.handleSellStep(ctx, session, req.From, answer)
	default:
		session.ResetWizard()
		if err := u.saveSession(ctx, session); err != nil {
			return err
		}
		return fmt.Errorf("unknown wizard action %q", session.Action)
	}
}

func (u *conversationUseCase) startSell(ctx context.Context, session *entity.Session) error {
	session.StartWizard(entity.ActionSellCar, entity.StepBrand)
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	return u.promptSellStep(ctx, session)
}

// promptSellStep joriy bosqich savolini yuborish
func (u *conversationUseCase) promptSellStep(ctx context.Context, session *entity.Session) error {
	lang := session.Lang
	step, ok := sellSteps[session.Step]
	if !ok {
		return fmt.Errorf("unknown sell step %q", session.Step)
	}

	switch session.Step {
	case entity.StepBrand:
		u.send(ctx, session.ChatID, i18n.T(lang, step.prompt), u.presenter.CancelKeyboard(lang))
		brands, err := u.catalog.ListBrands(ctx)
		if err != nil {
			return fmt.Errorf("list brands: %w", err)
		}
		if len(brands) > 0 {
			u.send(ctx, session.ChatID, i18n.T(lang, i18n.BrandMenu), u.presenter.BrandMenu(lang, brands, entity.CallbackBrandSell))
		}
	case entity.StepPhone:
		u.send(ctx, session.ChatID, i18n.T(lang, step.prompt), u.presenter.PhoneKeyboard(lang))
	default:
		u.send(ctx, session.ChatID, i18n.T(lang, step.prompt), u.presenter.CancelKeyboard(lang))
	}
	return nil
}

func (u *conversationUseCase) handleSellStep(ctx context.Context, session *entity.Session, from entity.Requester, answer string) error {
	step, ok := sellSteps[session.Step]
	if !ok {
		session.ResetWizard()
		if err := u.saveSession(ctx, session); err != nil {
			return err
		}
		return fmt.Errorf("unknown sell step %q", session.Step)
	}

	if errKey, ok := step.apply(&session.Sell, answer); !ok {
		u.send(ctx, session.ChatID, i18n.T(session.Lang, errKey), nil)
		return nil
	}

	if step.next == entity.StepNone {
		return u.submitSell(ctx, session, from)
	}

	session.Step = step.next
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	return u.promptSellStep(ctx, session)
}

func (u *conversationUseCase) submitSell(ctx context.Context, session *entity.Session, from entity.Requester) error {
	draft := session.Sell
	req := entity.SellRequest{
		Requester:   requesterFor(session.ChatID, from),
		Brand:       draft.Brand,
		Model:       draft.Model,
		Year:        draft.Year,
		Mileage:     draft.Mileage,
		Price:       draft.Price,
		Description: draft.Description,
		Phone:       draft.Phone,
		Status:      entity.StatusNew,
	}
	if err := u.orders.CreateSellRequest(ctx, &req); err != nil {
		return fmt.Errorf("create sell request: %w", err)
	}

	log.FromContext(ctx).WithField("chat_id", session.ChatID).WithField("sell_request_id", req.ID).Info("sell request created")

	u.notifyAdmin(ctx, u.presenter.AdminSellRequest(req))
	return u.finishWizard(ctx, session, i18n.SellDone)
}

// finishWizard foydalanuvchiga tasdiq, asosiy menyu va wizardni tozalash
func (u *conversationUseCase) finishWizard(ctx context.Context, session *entity.Session, done i18n.Key) error {
	lang := session.Lang
	session.ResetWizard()
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	u.send(ctx, session.ChatID, i18n.T(lang, done), u.presenter.MainKeyboard(lang))
	return nil
}

func (u *conversationUseCase) startOrder(ctx context.Context, session *entity.Session, carID int64) error {
	lang := session.Lang
	car, err := u.catalog.GetCar(ctx, carID)
	if errors.Is(err, entity.ErrNotFound) || (err == nil && !car.IsActive) {
		u.send(ctx, session.ChatID, i18n.T(lang, i18n.CarUnavailable), nil)
		u.sendMainMenu(ctx, session.ChatID, lang)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get car %d: %w", carID, err)
	}

	session.StartWizard(entity.ActionOrder, entity.StepPhone)
	session.CarID = car.ID
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	u.send(ctx, session.ChatID, i18n.T(lang, i18n.OrderAskPhone, html.EscapeString(car.Title), FormatPrice(car.Price)), u.presenter.PhoneKeyboard(lang))
	return nil
}

func (u *conversationUseCase) handleOrderPhone(ctx context.Context, session *entity.Session, from entity.Requester, answer string) error {
	var phone string
	if errKey, ok := requireText(&phone, answer); !ok {
		u.send(ctx, session.ChatID, i18n.T(session.Lang, errKey), nil)
		return nil
	}

	requester := requesterFor(session.ChatID, from)
	order := entity.Order{
		CarID:     session.CarID,
		Requester: requester,
		FullName:  strings.TrimSpace(requester.FirstName),
		Phone:     phone,
		Status:    entity.StatusNew,
	}
	if err := u.orders.CreateOrder(ctx, &order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	log.FromContext(ctx).
		WithField("chat_id", session.ChatID).
		WithField("order_id", order.ID).
		WithField("car_id", order.CarID).
		Info("order created")

	car, err := u.catalog.GetCar(ctx, order.CarID)
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("car_id", order.CarID).Warn("car lookup for admin notification failed")
		car = nil
	}
	u.notifyAdmin(ctx, u.presenter.AdminOrder(order, car))
	return u.finishWizard(ctx, session, i18n.OrderDone)
}

// requesterFor so'rovchi chat id si har doim sessiya chatiga teng
func requesterFor(chatID int64, from entity.Requester) entity.Requester {
	from.ChatID = chatID
	return from
}

// HandleCallback inline tugma bosilishini qayta ishlash
func (u *conversationUseCase) HandleCallback(ctx context.Context, req entity.CallbackRequest) error {
	if err := u.notifier.AnswerCallback(ctx, req.ID); err != nil {
		log.FromContext(ctx).WithError(err).WithField("chat_id", req.ChatID).Warn("answer callback failed")
	}

	cb, err := entity.ParseCallback(req.Data)
	if err != nil {
		return err
	}

	session, err := u.loadSession(ctx, req.ChatID)
	if err != nil {
		return err
	}
	if !session.Lang.Valid() {
		u.promptLanguage(ctx, req.ChatID)
		return nil
	}
	lang := session.Lang

	switch cb.Kind {
	case entity.CallbackOrder:
		return u.startOrder(ctx, session, cb.ID)
	case entity.CallbackBrandSell:
		return u.selectSellBrand(ctx, session, cb.ID)
	case entity.CallbackBrandView:
		cars, err := u.catalog.ListByBrand(ctx, cb.ID)
		if err != nil {
			return fmt.Errorf("list cars by brand %d: %w", cb.ID, err)
		}
		u.showCars(ctx, req.ChatID, lang, cars)
	case entity.CallbackCategory:
		cars, err := u.catalog.ListByPriceCategory(ctx, cb.ID)
		if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("list cars by category %d: %w", cb.ID, err)
		}
		u.showCars(ctx, req.ChatID, lang, cars)
	case entity.CallbackBrowseBrands:
		return u.showBrandMenu(ctx, req.ChatID, lang)
	case entity.CallbackBrowseLatest:
		return u.showLatest(ctx, req.ChatID, lang)
	default:
		return fmt.Errorf("%w: unhandled kind %q", entity.ErrMalformedCallback, cb.Kind)
	}
	return nil
}

// selectSellBrand inline brend tanlovi sotish wizardini model bosqichiga o'tkazadi
func (u *conversationUseCase) selectSellBrand(ctx context.Context, session *entity.Session, brandID int64) error {
	brand, err := u.catalog.GetBrand(ctx, brandID)
	if err != nil {
		return fmt.Errorf("get brand %d: %w", brandID, err)
	}

	if session.Action != entity.ActionSellCar {
		session.StartWizard(entity.ActionSellCar, entity.StepBrand)
	}
	session.Sell.Brand = brand.Name
	session.Step = entity.StepModel
	if err := u.saveSession(ctx, session); err != nil {
		return err
	}
	return u.promptSellStep(ctx, session)
}

func (u *conversationUseCase) showCatalogMenu(ctx context.Context, chatID int64, lang entity.Lang) error {
	cats, err := u.catalog.ListPriceCategories(ctx)
	if err != nil {
		return fmt.Errorf("list price categories: %w", err)
	}
	text, kb := u.presenter.CatalogMenu(lang, cats)
	u.send(ctx, chatID, text, kb)
	return nil
}

func (u *conversationUseCase) showBrandMenu(ctx context.Context, chatID int64, lang entity.Lang) error {
	brands, err := u.catalog.ListBrands(ctx)
	if err != nil {
		return fmt.Errorf("list brands: %w", err)
	}
	if len(brands) == 0 {
		u.send(ctx, chatID, i18n.T(lang, i18n.NoBrands), nil)
		return nil
	}
	u.send(ctx, chatID, i18n.T(lang, i18n.BrandMenu), u.presenter.BrandMenu(lang, brands, entity.CallbackBrandView))
	return nil
}

func (u *conversationUseCase) showLatest(ctx context.Context, chatID int64, lang entity.Lang) error {
	cars, err := u.catalog.ListLatest(ctx)
	if err != nil {
		return fmt.Errorf("list latest cars: %w", err)
	}
	u.showCars(ctx, chatID, lang, cars)
	return nil
}

func (u *conversationUseCase) showCars(ctx context.Context, chatID int64, lang entity.Lang, cars []entity.Car) {
	if len(cars) == 0 {
		u.send(ctx, chatID, i18n.T(lang, i18n.NoCars), nil)
		return
	}
	for _, car := range cars {
		photo, caption, kb := u.presenter.CarCard(lang, car)
		if err := u.notifier.Announce(ctx, chatID, photo, caption, kb); err != nil {
			log.FromContext(ctx).WithError(err).WithField("chat_id", chatID).WithField("car_id", car.ID).Warn("listing delivery failed")
		}
	}
}

// Fail umumiy xato: wizard tozalanadi, asosiy menyu qaytariladi
func (u *conversationUseCase) Fail(ctx context.Context, chatID int64) {
	session, err := u.loadSession(ctx, chatID)
	if err != nil {
		log.FromContext(ctx).WithError(err).WithField("chat_id", chatID).Error("load session on failure")
		session = entity.NewSession(chatID)
	}
	if !session.Lang.Valid() {
		u.promptLanguage(ctx, chatID)
		return
	}

	session.ResetWizard()
	if err := u.saveSession(ctx, session); err != nil {
		log.FromContext(ctx).WithError(err).WithField("chat_id", chatID).Error("reset session on failure")
	}
	u.send(ctx, chatID, i18n.T(session.Lang, i18n.GenericError), u.presenter.MainKeyboard(session.Lang))
}
