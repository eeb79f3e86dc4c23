package entity

import (
	"strings"
	"time"
)

// DefaultPageSize katalog ro'yxatidagi maksimal e'lonlar soni
const DefaultPageSize = 5

// Brand avtomobil ishlab chiqaruvchisi
type Brand struct {
	ID        int64
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// CarModel brend + model juftligi
type CarModel struct {
	ID        int64
	Name      string
	BrandID   int64
	IsActive  bool
	CreatedAt time.Time
}

// PriceCategory narx oralig'i (USD)
type PriceCategory struct {
	ID        int64
	Name      string
	MinPrice  float64
	MaxPrice  float64
	IsActive  bool
	CreatedAt time.Time
}

// Contains narx shu oraliqqa kiradimi (chegaralar ham kiradi)
func (c PriceCategory) Contains(price float64) bool {
	return c.MinPrice <= price && price <= c.MaxPrice
}

// PhotoSlots e'londagi rasm joylari soni
const PhotoSlots = 4

// Car sotuvdagi bitta avtomobil e'loni
type Car struct {
	ID              int64
	Title           string
	Description     string
	Price           float64
	PriceCategoryID int64 // 0 - belgilanmagan
	BrandID         int64
	ModelID         int64
	BrandName       string
	ModelName       string
	Year            int
	Mileage         int
	FuelType        string
	Transmission    string
	Color           string
	EngineCapacity  float64
	Photos          [PhotoSlots]string
	IsActive        bool
	CreatedAt       time.Time
}

// PrimaryPhoto birinchi bo'sh bo'lmagan rasm manzili
func (c Car) PrimaryPhoto() string {
	for _, p := range c.Photos {
		if p = strings.TrimSpace(p); p != "" {
			return p
		}
	}
	return ""
}

// PriceRange yopiq narx oralig'i
type PriceRange struct {
	Min float64
	Max float64
}

// CarFilter e'lonlarni qidirish filtri. Faqat aktiv e'lonlar qaytariladi.
type CarFilter struct {
	BrandID    int64
	PriceRange *PriceRange
	Limit      int
}

// Matches e'lon filtrga mosmi
func (f CarFilter) Matches(car Car) bool {
	if !car.IsActive {
		return false
	}
	if f.BrandID != 0 && car.BrandID != f.BrandID {
		return false
	}
	if f.PriceRange != nil && (car.Price < f.PriceRange.Min || car.Price > f.PriceRange.Max) {
		return false
	}
	return true
}

// CatalogStats admin uchun hisoblagichlar
type CatalogStats struct {
	TotalCars       int
	ActiveCars      int
	NewOrders       int
	NewSellRequests int
}
