package i18n

import (
	"fmt"
	"strings"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// Key xabar kaliti
type Key string

const (
	Welcome       Key = "welcome"
	MainMenu      Key = "main_menu"
	Help          Key = "help"
	Contacts      Key = "contacts"
	LanguageSet   Key = "language_set"
	NotUnderstood Key = "not_understood"
	GenericError  Key = "generic_error"
	Cancelled     Key = "cancelled"
	NotSpecified  Key = "not_specified"

	BtnCatalog    Key = "btn_catalog"
	BtnSell       Key = "btn_sell"
	BtnContacts   Key = "btn_contacts"
	BtnHelp       Key = "btn_help"
	BtnLanguage   Key = "btn_language"
	BtnCancel     Key = "btn_cancel"
	BtnByBrand    Key = "btn_by_brand"
	BtnLatest     Key = "btn_latest"
	BtnOrder      Key = "btn_order"
	BtnDetails    Key = "btn_details"
	BtnSharePhone Key = "btn_share_phone"

	CatalogMenu    Key = "catalog_menu"
	BrandMenu      Key = "brand_menu"
	NoCars         Key = "no_cars"
	NoBrands       Key = "no_brands"
	CarUnavailable Key = "car_unavailable"

	OrderAskPhone Key = "order_ask_phone"
	OrderDone     Key = "order_done"

	SellAskBrand       Key = "sell_ask_brand"
	SellAskModel       Key = "sell_ask_model"
	SellAskYear        Key = "sell_ask_year"
	SellAskMileage     Key = "sell_ask_mileage"
	SellAskPrice       Key = "sell_ask_price"
	SellAskDescription Key = "sell_ask_description"
	SellAskPhone       Key = "sell_ask_phone"
	SellDone           Key = "sell_done"

	InvalidYear    Key = "invalid_year"
	InvalidMileage Key = "invalid_mileage"
	InvalidPrice   Key = "invalid_price"
	EmptyAnswer    Key = "empty_answer"

	LabelPrice        Key = "label_price"
	LabelMileage      Key = "label_mileage"
	LabelBrand        Key = "label_brand"
	LabelModel        Key = "label_model"
	LabelYear         Key = "label_year"
	LabelFuel         Key = "label_fuel"
	LabelTransmission Key = "label_transmission"
	LabelColor        Key = "label_color"
	LabelEngine       Key = "label_engine"
	UnitKm            Key = "unit_km"
)

// ChooseLanguage til tanlash so'rovi. Til hali noma'lum, shuning uchun ikki tilda.
const ChooseLanguage = "🌐 Выберите язык / Тилди тандаңыз"

// Til tanlash tugmalari
const (
	LangButtonRU = "🇷🇺 Русский"
	LangButtonKY = "🇰🇬 Кыргызча"
)

// Fallback kalit tarjimasi topilmaganda ishlatiladigan til
const Fallback = entity.LangRU

var messages = map[entity.Lang]map[Key]string{
	entity.LangRU: {
		Welcome: "🚗 <b>Добро пожаловать в Suvtekin Auto!</b>\n\n" +
			"Мы предлагаем лучшие автомобили по выгодным ценам.\n\n" +
			"<b>Наши услуги:</b>\n• Покупка автомобилей\n• Продажа вашего авто\n• Консультация менеджера",
		MainMenu:      "Главное меню. Выберите действие 👇",
		Help:          "ℹ️ <b>Помощь</b>\n\n/start - Начать работу\n/cars - Последние автомобили\n/cancel - Отменить текущее действие\n/language - Сменить язык\n\n<b>Как заказать авто:</b>\n1. Нажмите «🚗 Каталог»\n2. Выберите автомобиль\n3. Нажмите «🛒 Заказать»\n4. Оставьте номер телефона\n\n<b>Продать авто:</b> нажмите «💰 Продать авто» и следуйте подсказкам.",
		Contacts:      "📞 <b>Контакты</b>\n\nТелефон: %s\nEmail: %s\n🕒 Работаем: 9:00 - 19:00",
		LanguageSet:   "✅ Язык установлен: русский",
		NotUnderstood: "🤔 Не понял. Пожалуйста, выберите пункт меню.",
		GenericError:  "⚠️ Произошла ошибка. Попробуйте ещё раз.",
		Cancelled:     "❌ Действие отменено.",
		NotSpecified:  "Не указано",

		BtnCatalog:    "🚗 Каталог",
		BtnSell:       "💰 Продать авто",
		BtnContacts:   "📞 Контакты",
		BtnHelp:       "ℹ️ Помощь",
		BtnLanguage:   "🌐 Язык",
		BtnCancel:     "❌ Отмена",
		BtnByBrand:    "🏭 По марке",
		BtnLatest:     "🆕 Последние",
		BtnOrder:      "🛒 Заказать",
		BtnDetails:    "ℹ️ Подробнее",
		BtnSharePhone: "📱 Отправить номер",

		CatalogMenu:    "🚗 <b>Каталог</b>\n\nВыберите ценовую категорию, марку или последние поступления:",
		BrandMenu:      "🏭 Выберите марку:",
		NoCars:         "🚗 На данный момент нет доступных автомобилей.",
		NoBrands:       "Марки пока не добавлены.",
		CarUnavailable: "😔 Этот автомобиль больше недоступен.",

		OrderAskPhone: "🛒 <b>Заказ автомобиля</b>\n\nВы выбрали: <b>%s</b>\nЦена: <b>%s</b>\n\nОтправьте ваш номер телефона, и менеджер свяжется с вами.",
		OrderDone:     "✅ Заявка принята! Менеджер свяжется с вами в ближайшее время.",

		SellAskBrand:       "💰 <b>Продажа авто</b>\n\nВыберите марку или напишите её:",
		SellAskModel:       "Напишите модель автомобиля:",
		SellAskYear:        "Год выпуска (например, 2015):",
		SellAskMileage:     "Пробег в км (например, 120000):",
		SellAskPrice:       "Желаемая цена в $ (например, 8500):",
		SellAskDescription: "Кратко опишите состояние автомобиля:",
		SellAskPhone:       "Отправьте ваш номер телефона:",
		SellDone:           "✅ Заявка на продажу принята! Мы свяжемся с вами.",

		InvalidYear:    "⚠️ Год должен быть числом. Попробуйте ещё раз:",
		InvalidMileage: "⚠️ Пробег должен быть целым числом. Попробуйте ещё раз:",
		InvalidPrice:   "⚠️ Цена должна быть числом. Попробуйте ещё раз:",
		EmptyAnswer:    "⚠️ Ответ не может быть пустым. Попробуйте ещё раз:",

		LabelPrice:        "Цена",
		LabelMileage:      "Пробег",
		LabelBrand:        "Марка",
		LabelModel:        "Модель",
		LabelYear:         "Год",
		LabelFuel:         "Топливо",
		LabelTransmission: "КПП",
		LabelColor:        "Цвет",
		LabelEngine:       "Двигатель",
		UnitKm:            "км",
	},
	entity.LangKY: {
		Welcome: "🚗 <b>Suvtekin Auto'го кош келиңиз!</b>\n\n" +
			"Биз мыкты унааларды ыңгайлуу баада сунуштайбыз.\n\n" +
			"<b>Кызматтарыбыз:</b>\n• Унаа сатып алуу\n• Унааңызды сатуу\n• Менеджердин кеңеши",
		MainMenu:      "Башкы меню. Аракетти тандаңыз 👇",
		Help:          "ℹ️ <b>Жардам</b>\n\n/start - Баштоо\n/cars - Акыркы унаалар\n/cancel - Учурдагы аракетти жокко чыгаруу\n/language - Тилди алмаштыруу\n\n<b>Унааны кантип буйрутма кылуу:</b>\n1. «🚗 Каталог» баскычын басыңыз\n2. Унааны тандаңыз\n3. «🛒 Буйрутма» баскычын басыңыз\n4. Телефон номериңизди калтырыңыз\n\n<b>Унаа сатуу:</b> «💰 Унаа сатуу» баскычын басып, көрсөтмөлөрдү аткарыңыз.",
		Contacts:      "📞 <b>Байланыш</b>\n\nТелефон: %s\nEmail: %s\n🕒 Иш убактысы: 9:00 - 19:00",
		LanguageSet:   "✅ Тил орнотулду: кыргызча",
		NotUnderstood: "🤔 Түшүнгөн жокмун. Менюдан тандаңыз.",
		GenericError:  "⚠️ Ката кетти. Кайра аракет кылыңыз.",
		Cancelled:     "❌ Аракет жокко чыгарылды.",
		NotSpecified:  "Көрсөтүлгөн эмес",

		BtnCatalog:    "🚗 Каталог",
		BtnSell:       "💰 Унаа сатуу",
		BtnContacts:   "📞 Байланыш",
		BtnHelp:       "ℹ️ Жардам",
		BtnLanguage:   "🌐 Тил",
		BtnCancel:     "❌ Жокко чыгаруу",
		BtnByBrand:    "🏭 Марка боюнча",
		BtnLatest:     "🆕 Акыркылар",
		BtnOrder:      "🛒 Буйрутма",
		BtnDetails:    "ℹ️ Толугураак",
		BtnSharePhone: "📱 Номерди жөнөтүү",

		CatalogMenu:    "🚗 <b>Каталог</b>\n\nБаа категориясын, марканы же акыркы унааларды тандаңыз:",
		BrandMenu:      "🏭 Марканы тандаңыз:",
		NoCars:         "🚗 Азыркы учурда жеткиликтүү унаалар жок.",
		NoBrands:       "Маркалар азырынча кошула элек.",
		CarUnavailable: "😔 Бул унаа азыр жеткиликсиз.",

		OrderAskPhone: "🛒 <b>Унааны буйрутма кылуу</b>\n\nСиз тандадыңыз: <b>%s</b>\nБаасы: <b>%s</b>\n\nТелефон номериңизди жөнөтүңүз, менеджер сиз менен байланышат.",
		OrderDone:     "✅ Буйрутма кабыл алынды! Менеджер жакында байланышат.",

		SellAskBrand:       "💰 <b>Унаа сатуу</b>\n\nМарканы тандаңыз же жазыңыз:",
		SellAskModel:       "Унаанын моделин жазыңыз:",
		SellAskYear:        "Чыгарылган жылы (мисалы, 2015):",
		SellAskMileage:     "Жүрүшү км менен (мисалы, 120000):",
		SellAskPrice:       "Каалаган баа $ менен (мисалы, 8500):",
		SellAskDescription: "Унаанын абалын кыскача жазыңыз:",
		SellAskPhone:       "Телефон номериңизди жөнөтүңүз:",
		SellDone:           "✅ Сатуу арызы кабыл алынды! Биз сиз менен байланышабыз.",

		InvalidYear:    "⚠️ Жыл сан болушу керек. Кайра жазыңыз:",
		InvalidMileage: "⚠️ Жүрүшү бүтүн сан болушу керек. Кайра жазыңыз:",
		InvalidPrice:   "⚠️ Баа сан болушу керек. Кайра жазыңыз:",
		EmptyAnswer:    "⚠️ Жооп бош болбошу керек. Кайра жазыңыз:",

		LabelPrice:        "Баасы",
		LabelMileage:      "Жүрүшү",
		LabelBrand:        "Марка",
		LabelModel:        "Модель",
		LabelYear:         "Жылы",
		LabelFuel:         "Күйүүчү май",
		LabelTransmission: "Кутуча",
		LabelColor:        "Түсү",
		LabelEngine:       "Кыймылдаткыч",
		UnitKm:            "км",
	},
}

// Keys barcha kalitlar ro'yxati
func Keys() []Key {
	keys := make([]Key, 0, len(messages[Fallback]))
	for k := range messages[Fallback] {
		keys = append(keys, k)
	}
	return keys
}

// T kalitni tilga tarjima qilish. args bo'lsa fmt.Sprintf bilan to'ldiriladi.
func T(lang entity.Lang, key Key, args ...any) string {
	text, ok := messages[lang][key]
	if !ok {
		text, ok = messages[Fallback][key]
	}
	if !ok {
		return string(key)
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// IsButton matn istalgan tildagi tugma matniga tengmi
func IsButton(text string, key Key) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	for _, m := range messages {
		if m[key] == text {
			return true
		}
	}
	return false
}

// IsCancel bekor qilish so'zi (ikkala tilda yoki /cancel)
func IsCancel(text string) bool {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, "/cancel") || IsButton(text, BtnCancel) {
		return true
	}
	lower := strings.ToLower(text)
	return lower == "отмена" || lower == "жокко чыгаруу"
}

// ParseLang til tanlash matnini o'qish
func ParseLang(text string) (entity.Lang, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(LangButtonRU), "ru", "русский":
		return entity.LangRU, true
	case strings.ToLower(LangButtonKY), "ky", "kg", "кыргызча":
		return entity.LangKY, true
	default:
		return "", false
	}
}
