package entity

import "time"

// Lang foydalanuvchi tanlagan til
type Lang string

const (
	LangRU Lang = "ru"
	LangKY Lang = "ky"
)

// Valid qo'llab-quvvatlanadigan tilmi
func (l Lang) Valid() bool {
	return l == LangRU || l == LangKY
}

// Action joriy wizard turi
type Action string

const (
	ActionNone    Action = ""
	ActionOrder   Action = "order"
	ActionSellCar Action = "sell_car"
)

// Step wizard bosqichi
type Step string

const (
	StepNone        Step = ""
	StepBrand       Step = "brand"
	StepModel       Step = "model"
	StepYear        Step = "year"
	StepMileage     Step = "mileage"
	StepPrice       Step = "price"
	StepDescription Step = "description"
	StepPhone       Step = "phone"
)

// SellDraft sotish wizardida yig'ilayotgan javoblar
type SellDraft struct {
	Brand       string
	Model       string
	Year        int
	Mileage     int
	Price       float64
	Description string
	Phone       string
}

// Session chat bo'yicha wizard kursori va tanlangan til
type Session struct {
	ChatID    int64
	Lang      Lang
	Action    Action
	Step      Step
	CarID     int64
	Sell      SellDraft
	UpdatedAt time.Time
}

// NewSession yangi (til tanlanmagan) sessiya
func NewSession(chatID int64) *Session {
	return &Session{ChatID: chatID}
}

// InWizard wizard jarayondami
func (s *Session) InWizard() bool {
	return s.Action != ActionNone && s.Step != StepNone
}

// StartWizard avvalgi wizardni bekor qilib yangisini boshlaydi
func (s *Session) StartWizard(action Action, first Step) {
	s.ResetWizard()
	s.Action = action
	s.Step = first
}

// ResetWizard wizard holatini tozalaydi, til saqlanib qoladi
func (s *Session) ResetWizard() {
	s.Action = ActionNone
	s.Step = StepNone
	s.CarID = 0
	s.Sell = SellDraft{}
}
