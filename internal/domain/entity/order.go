package entity

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus buyurtma / sotish arizasi holati
type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusProcessing RequestStatus = "processing"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// ParseStatus matndan holatni o'qish
func ParseStatus(raw string) (RequestStatus, error) {
	switch s := RequestStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusNew, StatusProcessing, StatusCompleted, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
}

// Requester chatdan so'rov yuborgan foydalanuvchi
type Requester struct {
	ChatID    int64
	Username  string
	FirstName string
}

// Order chat orqali kelgan sotib olish buyurtmasi
type Order struct {
	ID        int64
	CarID     int64
	Requester Requester
	FullName  string
	Phone     string
	Status    RequestStatus
	CreatedAt time.Time
}

// SellRequest "avtomobilimni soting" arizasi. Brand va Model erkin matn.
type SellRequest struct {
	ID          int64
	Requester   Requester
	Brand       string
	Model       string
	Year        int
	Mileage     int
	Price       float64
	Description string
	Phone       string
	Status      RequestStatus
	CreatedAt   time.Time
}
