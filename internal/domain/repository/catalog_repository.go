package repository

import (
	"context"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// CatalogRepository brend, model, narx kategoriyalari va e'lonlar bilan ishlash uchun interface
type CatalogRepository interface {
	// FindOrCreateBrand nom bo'yicha brendni topish yoki yaratish
	FindOrCreateBrand(ctx context.Context, name string) (*entity.Brand, error)

	// GetBrand ID bo'yicha brend
	GetBrand(ctx context.Context, id int64) (*entity.Brand, error)

	// ListBrands brendlar ro'yxati (nom bo'yicha)
	ListBrands(ctx context.Context, activeOnly bool) ([]entity.Brand, error)

	// FindOrCreateModel brend ichida modelni topish yoki yaratish
	FindOrCreateModel(ctx context.Context, brandID int64, name string) (*entity.CarModel, error)

	// ListPriceCategories narx kategoriyalari (min narx bo'yicha)
	ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error)

	// GetPriceCategory ID bo'yicha kategoriya
	GetPriceCategory(ctx context.Context, id int64) (*entity.PriceCategory, error)

	// SavePriceCategory kategoriya qo'shish (ID beriladi)
	SavePriceCategory(ctx context.Context, category *entity.PriceCategory) error

	// CreateCar e'lonni saqlash. BrandName/ModelName berilsa brend va model shu tranzaksiyada yaratiladi.
	CreateCar(ctx context.Context, car *entity.Car) error

	// GetCar ID bo'yicha e'lon
	GetCar(ctx context.Context, id int64) (*entity.Car, error)

	// ListCars aktiv e'lonlar, eng yangisi birinchi
	ListCars(ctx context.Context, filter entity.CarFilter) ([]entity.Car, error)

	// SetCarActive e'lonni yoqish/o'chirish
	SetCarActive(ctx context.Context, id int64, active bool) error

	// CountCars e'lonlar soni
	CountCars(ctx context.Context, activeOnly bool) (int, error)
}

// OrderRepository buyurtmalar va sotish arizalari
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *entity.Order) error
	CreateSellRequest(ctx context.Context, req *entity.SellRequest) error
	UpdateOrderStatus(ctx context.Context, id int64, status entity.RequestStatus) error
	ListOrders(ctx context.Context, status entity.RequestStatus, limit int) ([]entity.Order, error)
	CountOrders(ctx context.Context, status entity.RequestStatus) (int, error)
	CountSellRequests(ctx context.Context, status entity.RequestStatus) (int, error)
}
