package usecase

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/i18n"
)

func TestLanguageGate(t *testing.T) {
	h := newHarness(t)

	for _, text := range []string{"hello", "/start", "💰 Продать авто", ""} {
		h.text(text)
		last := h.notifier.last(testUserChat)
		if last.Text != i18n.ChooseLanguage {
			t.Errorf("after %q got %q, want language prompt", text, last.Text)
		}
	}
	if _, err := h.sessions.Get(h.ctx, testUserChat); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("language prompt stored a session: %v", err)
	}

	h.callback("browse_latest")
	if h.notifier.last(testUserChat).Text != i18n.ChooseLanguage {
		t.Error("callback without language did not re-prompt")
	}

	h.text(i18n.LangButtonKY)
	if got := h.session().Lang; got != entity.LangKY {
		t.Fatalf("Lang = %q, want ky", got)
	}
	if !h.notifier.sawText(testUserChat, i18n.T(entity.LangKY, i18n.LanguageSet)) {
		t.Error("language confirmation not sent")
	}
	last := h.notifier.last(testUserChat)
	if !reflect.DeepEqual(last.Keyboard, h.presenter.MainKeyboard(entity.LangKY)) {
		t.Errorf("welcome keyboard = %+v", last.Keyboard)
	}
}

func runSellFlow(h *harness, answers []string) {
	h.text(i18n.T(entity.LangRU, i18n.BtnSell))
	for _, a := range answers {
		h.text(a)
	}
}

func TestSellFlowCreatesRequest(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	runSellFlow(h, []string{"Toyota", "Camry", "2020", "50000", "15000", "clean", "+996555000000"})

	if len(h.orders.sellRequests) != 1 {
		t.Fatalf("sell requests = %d, want 1", len(h.orders.sellRequests))
	}
	got := h.orders.sellRequests[0]
	want := entity.SellRequest{
		Brand: "Toyota", Model: "Camry", Year: 2020, Mileage: 50000, Price: 15000,
		Description: "clean", Phone: "+996555000000",
	}
	if got.Brand != want.Brand || got.Model != want.Model || got.Year != want.Year ||
		got.Mileage != want.Mileage || got.Price != want.Price ||
		got.Description != want.Description || got.Phone != want.Phone {
		t.Errorf("sell request = %+v", got)
	}
	if got.Requester.ChatID != testUserChat || got.Status != entity.StatusNew {
		t.Errorf("requester=%+v status=%q", got.Requester, got.Status)
	}

	session := h.session()
	if session.InWizard() || session.Sell != (entity.SellDraft{}) {
		t.Errorf("session not cleared: %+v", session)
	}
	if session.Lang != entity.LangRU {
		t.Errorf("language lost after wizard: %q", session.Lang)
	}

	if len(h.notifier.to(testAdminChat)) != 1 || !h.notifier.sawText(testAdminChat, "Toyota") {
		t.Errorf("admin notifications = %+v", h.notifier.to(testAdminChat))
	}
	if h.notifier.last(testUserChat).Text != i18n.T(entity.LangRU, i18n.SellDone) {
		t.Errorf("user ack = %q", h.notifier.last(testUserChat).Text)
	}
}

func TestSellFlowRejectsNonNumericYear(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	runSellFlow(h, []string{"Toyota", "Camry"})
	if h.session().Step != entity.StepYear {
		t.Fatalf("step = %q, want year", h.session().Step)
	}

	h.text("abc")
	if h.session().Step != entity.StepYear {
		t.Errorf("step advanced to %q on bad year", h.session().Step)
	}
	if h.notifier.last(testUserChat).Text != i18n.T(entity.LangRU, i18n.InvalidYear) {
		t.Errorf("error message = %q", h.notifier.last(testUserChat).Text)
	}
	if len(h.orders.sellRequests) != 0 {
		t.Errorf("record created on invalid input")
	}

	h.text("2019")
	if h.session().Step != entity.StepMileage || h.session().Sell.Year != 2019 {
		t.Errorf("session after valid year = %+v", h.session())
	}
}

func TestSellFlowRejectsBadNumbers(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangKY)

	runSellFlow(h, []string{"Honda", "Fit", "2012", "много"})
	if h.session().Step != entity.StepMileage {
		t.Fatalf("step = %q after bad mileage", h.session().Step)
	}
	h.text("120 000")
	if h.session().Sell.Mileage != 120000 {
		t.Errorf("mileage = %d", h.session().Sell.Mileage)
	}
	for _, price := range []string{"дешево", "nan", "NaN", "inf", "-Inf", "1e400", "-500"} {
		h.notifier.reset()
		h.text(price)
		if h.session().Step != entity.StepPrice {
			t.Fatalf("step = %q after price %q", h.session().Step, price)
		}
		if h.notifier.last(testUserChat).Text != i18n.T(entity.LangKY, i18n.InvalidPrice) {
			t.Errorf("price %q: message = %q", price, h.notifier.last(testUserChat).Text)
		}
	}
	h.text("$15 000")
	if s := h.session(); s.Step != entity.StepDescription || s.Sell.Price != 15000 {
		t.Errorf("session after valid price = %+v", s)
	}
}

func TestOrderPromptEscapesTitle(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	car := h.addCar(entity.Car{Title: "Camry <XLE> & Co", Price: 15000, IsActive: true})

	h.callback(entity.NewCallback(entity.CallbackOrder, car.ID).Data())

	got := h.notifier.last(testUserChat).Text
	if !strings.Contains(got, "Camry &lt;XLE&gt; &amp; Co") {
		t.Errorf("prompt = %q", got)
	}
	if strings.Contains(got, "<XLE>") {
		t.Errorf("raw title leaked into HTML prompt: %q", got)
	}
	if s := h.session(); s.Step != entity.StepPhone || s.CarID != car.ID {
		t.Errorf("session = %+v", s)
	}
}

func TestOrderFlowSurvivesAdminDeliveryFailure(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	h.notifier.failChats[testAdminChat] = true

	var car entity.Car
	for car.ID < 7 {
		car = h.addCar(entity.Car{Title: "Toyota Camry", Price: 15000, IsActive: true})
	}
	if car.ID != 7 {
		t.Fatalf("car id = %d, want 7", car.ID)
	}

	h.callback("order_7")
	if s := h.session(); s.Action != entity.ActionOrder || s.Step != entity.StepPhone || s.CarID != 7 {
		t.Fatalf("session after order callback = %+v", s)
	}
	h.text("+996555000000")

	if len(h.orders.orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(h.orders.orders))
	}
	order := h.orders.orders[0]
	if order.CarID != 7 || order.Status != entity.StatusNew || order.Phone != "+996555000000" {
		t.Errorf("order = %+v", order)
	}
	if order.Requester.ChatID != testUserChat || order.Requester.Username != "aziz" {
		t.Errorf("requester = %+v", order.Requester)
	}

	if n, _ := h.orders.CountOrders(h.ctx, entity.StatusNew); n != 1 {
		t.Errorf("stored orders = %d", n)
	}
	if attempts := len(h.notifier.to(testAdminChat)); attempts != 1 {
		t.Errorf("admin notification attempts = %d, want 1", attempts)
	}
	if h.notifier.last(testUserChat).Text != i18n.T(entity.LangRU, i18n.OrderDone) {
		t.Errorf("user ack = %q", h.notifier.last(testUserChat).Text)
	}
	if s := h.session(); s.InWizard() {
		t.Error("order wizard not cleared")
	}
	if len(h.notifier.callbacks) != 1 {
		t.Errorf("callbacks answered = %d", len(h.notifier.callbacks))
	}
}

func TestOrderFlowAcceptsSharedContact(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	car := h.addCar(entity.Car{Title: "Honda Fit", Price: 5000, IsActive: true})

	h.callback(entity.NewCallback(entity.CallbackOrder, car.ID).Data())
	err := h.conv.HandleText(h.ctx, entity.TextRequest{ChatID: testUserChat, ContactPhone: "996700111222"})
	if err != nil {
		t.Fatalf("HandleText contact: %v", err)
	}
	if len(h.orders.orders) != 1 || h.orders.orders[0].Phone != "996700111222" {
		t.Errorf("orders = %+v", h.orders.orders)
	}
}

func TestOrderUnavailableCar(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	car := h.addCar(entity.Car{Title: "Old", Price: 2000, IsActive: false})

	for _, data := range []string{entity.NewCallback(entity.CallbackOrder, car.ID).Data(), "order_999"} {
		h.notifier.reset()
		h.callback(data)
		if !h.notifier.sawText(testUserChat, i18n.T(entity.LangRU, i18n.CarUnavailable)) {
			t.Errorf("%s: unavailable message not sent", data)
		}
		if s := h.session(); s.InWizard() {
			t.Errorf("%s: wizard started for unavailable car", data)
		}
	}
}

func TestCancelAtEveryStep(t *testing.T) {
	sellAnswers := []string{"Toyota", "Camry", "2020", "50000", "15000", "clean"}

	for depth := 0; depth <= len(sellAnswers); depth++ {
		t.Run("sell_"+strconv.Itoa(depth), func(t *testing.T) {
			h := newHarness(t)
			h.setLang(entity.LangRU)
			runSellFlow(h, sellAnswers[:depth])
			if s := h.session(); !s.InWizard() {
				t.Fatalf("not in wizard at depth %d", depth)
			}

			h.text(i18n.T(entity.LangRU, i18n.BtnCancel))
			assertCancelled(t, h)

			h.text(i18n.T(entity.LangRU, i18n.BtnSell))
			if s := h.session(); s.Step != entity.StepBrand || s.Sell.Brand != "" {
				t.Errorf("restarted wizard = %+v", s)
			}
		})
	}

	t.Run("order", func(t *testing.T) {
		h := newHarness(t)
		h.setLang(entity.LangKY)
		car := h.addCar(entity.Car{Title: "Lexus", Price: 30000, IsActive: true})
		h.callback(entity.NewCallback(entity.CallbackOrder, car.ID).Data())

		h.text("/cancel")
		assertCancelled(t, h)
		if len(h.orders.orders) != 0 {
			t.Error("order created after cancel")
		}
	})
}

func assertCancelled(t *testing.T, h *harness) {
	t.Helper()
	s := h.session()
	if s.InWizard() || s.CarID != 0 || s.Sell != (entity.SellDraft{}) {
		t.Errorf("session after cancel = %+v", s)
	}
	text, kb := h.presenter.MainMenu(s.Lang)
	last := h.notifier.last(testUserChat)
	if last.Text != text || !reflect.DeepEqual(last.Keyboard, kb) {
		t.Errorf("after cancel got %q, want main menu", last.Text)
	}
	if len(h.orders.sellRequests) != 0 {
		t.Error("sell request created after cancel")
	}
}

func TestBrowseByPriceCategory(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	cats, err := h.catalog.ListPriceCategories(h.ctx)
	if err != nil {
		t.Fatalf("ListPriceCategories: %v", err)
	}
	var band entity.PriceCategory
	for _, c := range cats {
		if c.MinPrice == 3000 && c.MaxPrice == 6000 {
			band = c
		}
	}
	if band.ID == 0 {
		t.Fatal("3000-6000 category not seeded")
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	prices := []float64{3000, 3500, 4000, 4500, 5000, 5500, 6000}
	for i, p := range prices {
		h.addCar(entity.Car{Title: "in range " + strconv.Itoa(i), Price: p, IsActive: true, CreatedAt: base.Add(time.Duration(i) * time.Hour)})
	}
	h.addCar(entity.Car{Title: "too cheap", Price: 2999, IsActive: true, CreatedAt: base.Add(100 * time.Hour)})
	h.addCar(entity.Car{Title: "too expensive", Price: 6001, IsActive: true, CreatedAt: base.Add(101 * time.Hour)})
	h.addCar(entity.Car{Title: "hidden", Price: 4200, IsActive: false, CreatedAt: base.Add(102 * time.Hour)})

	cars, err := h.catalog.ListByPriceCategory(h.ctx, band.ID)
	if err != nil {
		t.Fatalf("ListByPriceCategory: %v", err)
	}
	if len(cars) != entity.DefaultPageSize {
		t.Fatalf("got %d cars, want %d", len(cars), entity.DefaultPageSize)
	}
	for i, car := range cars {
		if !car.IsActive || car.Price < 3000 || car.Price > 6000 {
			t.Errorf("car %d out of band: %+v", i, car)
		}
		if i > 0 && car.CreatedAt.After(cars[i-1].CreatedAt) {
			t.Errorf("cars not most-recent-first at %d", i)
		}
	}
	if cars[0].Price != 6000 {
		t.Errorf("newest car price = %v, want 6000", cars[0].Price)
	}

	h.callback(entity.NewCallback(entity.CallbackCategory, band.ID).Data())
	shown := h.notifier.to(testUserChat)
	if len(shown) != entity.DefaultPageSize {
		t.Fatalf("announced %d listings", len(shown))
	}
	if kb := shown[0].Keyboard; kb == nil || kb.Rows[0][0].CallbackData != entity.NewCallback(entity.CallbackOrder, cars[0].ID).Data() {
		t.Errorf("order button = %+v", kb)
	}
}

func TestBrowseMenus(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	h.text(i18n.T(entity.LangRU, i18n.BtnCatalog))
	menu := h.notifier.last(testUserChat)
	if menu.Keyboard == nil || !menu.Keyboard.Inline || len(menu.Keyboard.Rows) != len(SeedPriceCategories)+1 {
		t.Fatalf("catalog menu keyboard = %+v", menu.Keyboard)
	}

	h.callback("browse_brands")
	brands := h.notifier.last(testUserChat)
	if brands.Keyboard == nil || !strings.HasPrefix(brands.Keyboard.Rows[0][0].CallbackData, "brand_view_") {
		t.Fatalf("brand menu = %+v", brands.Keyboard)
	}

	h.notifier.reset()
	h.callback("browse_latest")
	if h.notifier.last(testUserChat).Text != i18n.T(entity.LangRU, i18n.NoCars) {
		t.Errorf("empty catalog reply = %q", h.notifier.last(testUserChat).Text)
	}

	toyota, err := h.catalogRepo.FindOrCreateBrand(h.ctx, "Toyota")
	if err != nil {
		t.Fatalf("FindOrCreateBrand: %v", err)
	}
	h.addCar(entity.Car{Title: "Prius", BrandID: toyota.ID, Price: 9000, IsActive: true, Photos: [4]string{"", "https://img.example/p.jpg"}})
	h.addCar(entity.Car{Title: "Accord", BrandName: "Honda", Price: 9000, IsActive: true})

	h.notifier.reset()
	h.callback(entity.NewCallback(entity.CallbackBrandView, toyota.ID).Data())
	shown := h.notifier.to(testUserChat)
	if len(shown) != 1 || shown[0].Photo != "https://img.example/p.jpg" {
		t.Errorf("brand listing = %+v", shown)
	}
}

func TestSellBrandCallbackSkipsToModel(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	h.text(i18n.T(entity.LangRU, i18n.BtnSell))
	brandMenu := h.notifier.last(testUserChat)
	if brandMenu.Keyboard == nil || !brandMenu.Keyboard.Inline {
		t.Fatalf("sell brand menu = %+v", brandMenu)
	}

	h.callback(brandMenu.Keyboard.Rows[0][0].CallbackData)
	s := h.session()
	if s.Step != entity.StepModel || s.Sell.Brand != brandMenu.Keyboard.Rows[0][0].Text {
		t.Errorf("session = %+v", s)
	}
}

func TestFreeformBrandIsNotRegistered(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	before, _ := h.catalogRepo.ListBrands(h.ctx, false)
	runSellFlow(h, []string{"Москвич", "412", "1985", "300000", "500", "на ходу", "0555"})
	after, _ := h.catalogRepo.ListBrands(h.ctx, false)

	if len(after) != len(before) {
		t.Errorf("freeform brand created a Brand record")
	}
	if len(h.orders.sellRequests) != 1 || h.orders.sellRequests[0].Brand != "Москвич" {
		t.Errorf("sell requests = %+v", h.orders.sellRequests)
	}
}

func TestMainMenuIsDeterministic(t *testing.T) {
	p := NewPresenter("")
	for _, lang := range []entity.Lang{entity.LangRU, entity.LangKY} {
		text1, kb1 := p.MainMenu(lang)
		text2, kb2 := p.MainMenu(lang)
		if text1 != text2 || !reflect.DeepEqual(kb1, kb2) {
			t.Errorf("%s: main menu differs between renders", lang)
		}
	}
}

func TestFailResetsWizard(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	runSellFlow(h, []string{"Toyota"})

	h.conv.Fail(h.ctx, testUserChat)

	if s := h.session(); s.InWizard() {
		t.Error("wizard still active after Fail")
	}
	last := h.notifier.last(testUserChat)
	if last.Text != i18n.T(entity.LangRU, i18n.GenericError) || !reflect.DeepEqual(last.Keyboard, h.presenter.MainKeyboard(entity.LangRU)) {
		t.Errorf("Fail sent %+v", last)
	}

	h2 := newHarness(t)
	h2.conv.Fail(h2.ctx, testUserChat)
	if h2.notifier.last(testUserChat).Text != i18n.ChooseLanguage {
		t.Error("Fail without language did not prompt language")
	}
}

func TestPersistenceFailureLeavesNoRecord(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	h.orders.failCreate = true

	runSellFlow(h, []string{"Toyota", "Camry", "2020", "50000", "15000", "clean"})
	err := h.conv.HandleText(h.ctx, entity.TextRequest{ChatID: testUserChat, Text: "+996555000000"})
	if err == nil {
		t.Fatal("expected persistence error")
	}
	if n, _ := h.orders.CountSellRequests(h.ctx, ""); n != 0 {
		t.Errorf("stored sell requests = %d", n)
	}
	if len(h.notifier.to(testAdminChat)) != 0 {
		t.Error("admin notified about unsaved request")
	}
}

func TestMalformedCallback(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	err := h.conv.HandleCallback(context.Background(), entity.CallbackRequest{ID: "cb", ChatID: testUserChat, Data: "order_abc"})
	if !errors.Is(err, entity.ErrMalformedCallback) {
		t.Errorf("error = %v, want ErrMalformedCallback", err)
	}
	if len(h.notifier.callbacks) != 1 {
		t.Error("malformed callback was not answered")
	}
}

func TestLanguageCommandClearsSession(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)
	runSellFlow(h, []string{"Toyota"})

	h.text("/language")
	if _, err := h.sessions.Get(h.ctx, testUserChat); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("session still stored: %v", err)
	}
	if h.notifier.last(testUserChat).Text != i18n.ChooseLanguage {
		t.Error("language prompt not sent")
	}
}

func TestContactsAndUnknownText(t *testing.T) {
	h := newHarness(t)
	h.setLang(entity.LangRU)

	h.text(i18n.T(entity.LangRU, i18n.BtnContacts))
	if !h.notifier.sawText(testUserChat, "+996 555 123 456") {
		t.Error("contacts do not include phone")
	}

	h.text("привет")
	if h.notifier.last(testUserChat).Text != i18n.T(entity.LangRU, i18n.NotUnderstood) {
		t.Errorf("unknown text reply = %q", h.notifier.last(testUserChat).Text)
	}
}
