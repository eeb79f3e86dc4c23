package usecase

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/i18n"
)

// descriptionPreview e'lon izohida ko'rsatiladigan tavsif uzunligi
const descriptionPreview = 150

// Presenter menyular va e'lon kartochkalarini yig'adi
type Presenter struct {
	publicBaseURL string
}

// NewPresenter yangi presenter. publicBaseURL bo'sh bo'lsa "batafsil" tugmasi chiqmaydi.
func NewPresenter(publicBaseURL string) *Presenter {
	return &Presenter{publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// MainMenu asosiy menyu matni va klaviaturasi
func (p *Presenter) MainMenu(lang entity.Lang) (string, *entity.Keyboard) {
	return i18n.T(lang, i18n.MainMenu), p.MainKeyboard(lang)
}

// MainKeyboard asosiy menyu tugmalari
func (p *Presenter) MainKeyboard(lang entity.Lang) *entity.Keyboard {
	return &entity.Keyboard{
		Rows: [][]entity.Button{
			{{Text: i18n.T(lang, i18n.BtnCatalog)}},
			{{Text: i18n.T(lang, i18n.BtnSell)}, {Text: i18n.T(lang, i18n.BtnContacts)}},
			{{Text: i18n.T(lang, i18n.BtnHelp)}, {Text: i18n.T(lang, i18n.BtnLanguage)}},
		},
	}
}

// LanguageKeyboard til tanlash tugmalari
func (p *Presenter) LanguageKeyboard() *entity.Keyboard {
	return &entity.Keyboard{
		OneTime: true,
		Rows:    [][]entity.Button{{{Text: i18n.LangButtonRU}, {Text: i18n.LangButtonKY}}},
	}
}

// CancelKeyboard wizard davomida faqat bekor qilish tugmasi
func (p *Presenter) CancelKeyboard(lang entity.Lang) *entity.Keyboard {
	return &entity.Keyboard{
		Rows: [][]entity.Button{{{Text: i18n.T(lang, i18n.BtnCancel)}}},
	}
}

// PhoneKeyboard kontakt yuborish + bekor qilish
func (p *Presenter) PhoneKeyboard(lang entity.Lang) *entity.Keyboard {
	return &entity.Keyboard{
		OneTime: true,
		Rows: [][]entity.Button{
			{{Text: i18n.T(lang, i18n.BtnSharePhone), RequestContact: true}},
			{{Text: i18n.T(lang, i18n.BtnCancel)}},
		},
	}
}

// CatalogMenu narx kategoriyalari, brend va oxirgilar tugmalari
func (p *Presenter) CatalogMenu(lang entity.Lang, categories []entity.PriceCategory) (string, *entity.Keyboard) {
	rows := make([][]entity.Button, 0, len(categories)+1)
	for _, c := range categories {
		rows = append(rows, []entity.Button{{
			Text:         "💰 " + c.Name,
			CallbackData: entity.NewCallback(entity.CallbackCategory, c.ID).Data(),
		}})
	}
	rows = append(rows, []entity.Button{
		{Text: i18n.T(lang, i18n.BtnByBrand), CallbackData: entity.NewCallback(entity.CallbackBrowseBrands, 0).Data()},
		{Text: i18n.T(lang, i18n.BtnLatest), CallbackData: entity.NewCallback(entity.CallbackBrowseLatest, 0).Data()},
	})
	return i18n.T(lang, i18n.CatalogMenu), &entity.Keyboard{Inline: true, Rows: rows}
}

// BrandMenu brendlar ro'yxati. kind - brand_view yoki brand_sell.
func (p *Presenter) BrandMenu(lang entity.Lang, brands []entity.Brand, kind entity.CallbackKind) *entity.Keyboard {
	const perRow = 2
	var rows [][]entity.Button
	for i, b := range brands {
		if i%perRow == 0 {
			rows = append(rows, nil)
		}
		last := len(rows) - 1
		rows[last] = append(rows[last], entity.Button{
			Text:         b.Name,
			CallbackData: entity.NewCallback(kind, b.ID).Data(),
		})
	}
	return &entity.Keyboard{Inline: true, Rows: rows}
}

// CarCard e'lon rasmi, izohi va buyurtma tugmasi
func (p *Presenter) CarCard(lang entity.Lang, car entity.Car) (string, string, *entity.Keyboard) {
	na := i18n.T(lang, i18n.NotSpecified)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚗 <b>%s</b>\n\n", html.EscapeString(car.Title))
	fmt.Fprintf(&sb, "💰 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelPrice), FormatPrice(car.Price))
	fmt.Fprintf(&sb, "📏 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelMileage), p.mileage(lang, car.Mileage))
	fmt.Fprintf(&sb, "🏭 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelBrand), orDefault(car.BrandName, na))
	fmt.Fprintf(&sb, "🚘 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelModel), orDefault(car.ModelName, na))
	fmt.Fprintf(&sb, "📅 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelYear), intOrDefault(car.Year, na))
	fmt.Fprintf(&sb, "⛽ <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelFuel), orDefault(car.FuelType, na))
	fmt.Fprintf(&sb, "⚙️ <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelTransmission), orDefault(car.Transmission, na))
	fmt.Fprintf(&sb, "🎨 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelColor), orDefault(car.Color, na))
	fmt.Fprintf(&sb, "🔧 <b>%s:</b> %s\n", i18n.T(lang, i18n.LabelEngine), engineOrDefault(car.EngineCapacity, na))
	if desc := strings.TrimSpace(car.Description); desc != "" {
		sb.WriteString("\n" + html.EscapeString(truncate(desc, descriptionPreview)))
	}

	buttons := []entity.Button{{
		Text:         i18n.T(lang, i18n.BtnOrder),
		CallbackData: entity.NewCallback(entity.CallbackOrder, car.ID).Data(),
	}}
	if p.publicBaseURL != "" {
		buttons = append(buttons, entity.Button{
			Text: i18n.T(lang, i18n.BtnDetails),
			URL:  fmt.Sprintf("%s/car/%d", p.publicBaseURL, car.ID),
		})
	}

	return car.PrimaryPhoto(), sb.String(), &entity.Keyboard{Inline: true, Rows: [][]entity.Button{buttons}}
}

func (p *Presenter) mileage(lang entity.Lang, km int) string {
	if km <= 0 {
		return i18n.T(lang, i18n.NotSpecified)
	}
	return groupThousands(int64(km)) + " " + i18n.T(lang, i18n.UnitKm)
}

// AdminNewCar yangi e'lon haqida admin xabari
func (p *Presenter) AdminNewCar(car entity.Car) string {
	const na = "Не указано"
	var sb strings.Builder
	sb.WriteString("🚗 <b>НОВЫЙ АВТОМОБИЛЬ!</b>\n\n")
	fmt.Fprintf(&sb, "<b>ID:</b> %d\n", car.ID)
	fmt.Fprintf(&sb, "<b>Марка:</b> %s\n", orDefault(car.BrandName, na))
	fmt.Fprintf(&sb, "<b>Модель:</b> %s\n", orDefault(car.ModelName, na))
	fmt.Fprintf(&sb, "<b>Год:</b> %s\n", intOrDefault(car.Year, na))
	fmt.Fprintf(&sb, "<b>Цена:</b> %s\n", FormatPrice(car.Price))
	if car.Mileage > 0 {
		fmt.Fprintf(&sb, "<b>Пробег:</b> %s км\n", groupThousands(int64(car.Mileage)))
	} else {
		fmt.Fprintf(&sb, "<b>Пробег:</b> %s\n", na)
	}
	if desc := strings.TrimSpace(car.Description); desc != "" {
		fmt.Fprintf(&sb, "\n<b>Описание:</b>\n%s\n", html.EscapeString(truncate(desc, 200)))
	}
	sb.WriteString("\n<b>Просмотреть в каталоге:</b> /cars")
	return sb.String()
}

// AdminOrder yangi buyurtma haqida admin xabari. car nil bo'lishi mumkin.
func (p *Presenter) AdminOrder(order entity.Order, car *entity.Car) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🛒 <b>НОВЫЙ ЗАКАЗ #%d</b>\n\n", order.ID)
	if car != nil {
		fmt.Fprintf(&sb, "<b>Автомобиль:</b> %s (ID %d)\n", html.EscapeString(car.Title), car.ID)
		fmt.Fprintf(&sb, "<b>Цена:</b> %s\n", FormatPrice(car.Price))
	} else {
		fmt.Fprintf(&sb, "<b>Автомобиль:</b> ID %d\n", order.CarID)
	}
	sb.WriteString(requesterLines(order.Requester))
	fmt.Fprintf(&sb, "<b>Телефон:</b> %s\n", html.EscapeString(order.Phone))
	fmt.Fprintf(&sb, "<b>Статус:</b> %s", order.Status)
	return sb.String()
}

// AdminSellRequest yangi sotish arizasi haqida admin xabari
func (p *Presenter) AdminSellRequest(req entity.SellRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 <b>ЗАЯВКА НА ПРОДАЖУ #%d</b>\n\n", req.ID)
	fmt.Fprintf(&sb, "<b>Марка:</b> %s\n", html.EscapeString(req.Brand))
	fmt.Fprintf(&sb, "<b>Модель:</b> %s\n", html.EscapeString(req.Model))
	fmt.Fprintf(&sb, "<b>Год:</b> %d\n", req.Year)
	fmt.Fprintf(&sb, "<b>Пробег:</b> %s км\n", groupThousands(int64(req.Mileage)))
	fmt.Fprintf(&sb, "<b>Цена:</b> %s\n", FormatPrice(req.Price))
	fmt.Fprintf(&sb, "<b>Описание:</b> %s\n", html.EscapeString(req.Description))
	sb.WriteString(requesterLines(req.Requester))
	fmt.Fprintf(&sb, "<b>Телефон:</b> %s", html.EscapeString(req.Phone))
	return sb.String()
}

// AdminStats admin statistikasi
func (p *Presenter) AdminStats(stats entity.CatalogStats) string {
	return fmt.Sprintf("📊 <b>Статистика</b>\n\nВсего автомобилей: %d\nАктивных: %d\nНовых заказов: %d\nНовых заявок на продажу: %d",
		stats.TotalCars, stats.ActiveCars, stats.NewOrders, stats.NewSellRequests)
}

// AdminOrders oxirgi buyurtmalar ro'yxati
func (p *Presenter) AdminOrders(orders []entity.Order) string {
	if len(orders) == 0 {
		return "Заказов нет."
	}
	var sb strings.Builder
	sb.WriteString("🛒 <b>Последние заказы</b>\n")
	for _, o := range orders {
		fmt.Fprintf(&sb, "\n#%d · авто %d · %s · %s · %s", o.ID, o.CarID,
			html.EscapeString(o.Phone), html.EscapeString(displayName(o.Requester)), o.Status)
	}
	return sb.String()
}

func requesterLines(r entity.Requester) string {
	return fmt.Sprintf("<b>Клиент:</b> %s\n<b>Chat ID:</b> %d\n", html.EscapeString(displayName(r)), r.ChatID)
}

func displayName(r entity.Requester) string {
	name := strings.TrimSpace(r.FirstName)
	if r.Username != "" {
		if name != "" {
			return name + " (@" + r.Username + ")"
		}
		return "@" + r.Username
	}
	if name == "" {
		return strconv.FormatInt(r.ChatID, 10)
	}
	return name
}

// FormatPrice "$15,500" ko'rinishida
func FormatPrice(price float64) string {
	return "$" + groupThousands(int64(price+0.5))
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var out []byte
	for i := 0; i < len(s); i++ {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return html.EscapeString(v)
	}
	return fallback
}

func intOrDefault(value int, fallback string) string {
	if value <= 0 {
		return fallback
	}
	return strconv.Itoa(value)
}

func engineOrDefault(value float64, fallback string) string {
	if value <= 0 {
		return fallback
	}
	return strconv.FormatFloat(value, 'f', 1, 64) + " L"
}

// truncate rune bo'yicha qisqartirish
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
