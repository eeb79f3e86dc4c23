package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/log"
)

// SeedBrands bo'sh bazaga qo'shiladigan brendlar
var SeedBrands = []string{"Toyota", "Honda", "BMW", "Mercedes", "Audi", "Ford", "Chevrolet"}

// SeedPriceCategories bo'sh bazaga qo'shiladigan narx kategoriyalari
var SeedPriceCategories = []entity.PriceCategory{
	{Name: "0-3000$", MinPrice: 0, MaxPrice: 3000, IsActive: true},
	{Name: "3000-6000$", MinPrice: 3000, MaxPrice: 6000, IsActive: true},
	{Name: "6000-10000$", MinPrice: 6000, MaxPrice: 10000, IsActive: true},
	{Name: "10000-20000$", MinPrice: 10000, MaxPrice: 20000, IsActive: true},
	{Name: "20000+$", MinPrice: 20000, MaxPrice: 1000000, IsActive: true},
}

// CatalogUseCase katalog bilan bog'liq business logic
type CatalogUseCase interface {
	// Seed bo'sh jadvallarni boshlang'ich ma'lumot bilan to'ldirish
	Seed(ctx context.Context) error

	// AddCar e'lon qo'shish. announce bo'lsa admin chatga yuboriladi.
	AddCar(ctx context.Context, car *entity.Car, announce bool) error

	// ListByPriceCategory kategoriya oralig'idagi aktiv e'lonlar
	ListByPriceCategory(ctx context.Context, categoryID int64) ([]entity.Car, error)

	// ListByBrand brend bo'yicha aktiv e'lonlar
	ListByBrand(ctx context.Context, brandID int64) ([]entity.Car, error)

	// ListLatest oxirgi aktiv e'lonlar
	ListLatest(ctx context.Context) ([]entity.Car, error)

	// ListBrands aktiv brendlar
	ListBrands(ctx context.Context) ([]entity.Brand, error)

	// GetBrand ID bo'yicha brend
	GetBrand(ctx context.Context, id int64) (*entity.Brand, error)

	// ListPriceCategories aktiv narx kategoriyalari
	ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error)

	// GetCar bitta e'lon
	GetCar(ctx context.Context, id int64) (*entity.Car, error)

	// DeactivateCar e'lonni katalogdan yashirish
	DeactivateCar(ctx context.Context, id int64) error
}

type catalogUseCase struct {
	catalogRepo repository.CatalogRepository
	notifier    repository.Notifier
	presenter   *Presenter
	adminChatID int64
	pageSize    int
}

// NewCatalogUseCase yangi CatalogUseCase yaratish
func NewCatalogUseCase(
	catalogRepo repository.CatalogRepository,
	notifier repository.Notifier,
	presenter *Presenter,
	adminChatID int64,
) CatalogUseCase {
	return &catalogUseCase{
		catalogRepo: catalogRepo,
		notifier:    notifier,
		presenter:   presenter,
		adminChatID: adminChatID,
		pageSize:    entity.DefaultPageSize,
	}
}

// Seed bo'sh jadvallarni boshlang'ich ma'lumot bilan to'ldirish
func (u *catalogUseCase) Seed(ctx context.Context) error {
	brands, err := u.catalogRepo.ListBrands(ctx, false)
	if err != nil {
		return fmt.Errorf("list brands: %w", err)
	}
	if len(brands) == 0 {
		for _, name := range SeedBrands {
			if _, err := u.catalogRepo.FindOrCreateBrand(ctx, name); err != nil {
				return fmt.Errorf("seed brand %s: %w", name, err)
			}
		}
	}

	cats, err := u.catalogRepo.ListPriceCategories(ctx)
	if err != nil {
		return fmt.Errorf("list price categories: %w", err)
	}
	if len(cats) == 0 {
		for _, c := range SeedPriceCategories {
			c := c
			if err := u.catalogRepo.SavePriceCategory(ctx, &c); err != nil {
				return fmt.Errorf("seed price category %s: %w", c.Name, err)
			}
		}
	}

	log.FromContext(ctx).
		WithField("brands_seeded", len(brands) == 0).
		WithField("categories_seeded", len(cats) == 0).
		Debug("catalog seed checked")
	return nil
}

// AddCar e'lonni tekshirib saqlash
func (u *catalogUseCase) AddCar(ctx context.Context, car *entity.Car, announce bool) error {
	car.Title = strings.TrimSpace(car.Title)
	if car.Title == "" {
		return fmt.Errorf("%w: empty title", entity.ErrInvalidCar)
	}
	if car.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", entity.ErrInvalidCar)
	}

	if err := u.resolvePriceCategory(ctx, car); err != nil {
		return err
	}

	if err := u.catalogRepo.CreateCar(ctx, car); err != nil {
		return fmt.Errorf("create car: %w", err)
	}

	log.FromContext(ctx).
		WithField("car_id", car.ID).
		WithField("price", car.Price).
		WithField("category_id", car.PriceCategoryID).
		Info("car listing added")

	if announce && u.adminChatID != 0 {
		if err := u.notifier.Announce(ctx, u.adminChatID, car.PrimaryPhoto(), u.presenter.AdminNewCar(*car), nil); err != nil {
			log.FromContext(ctx).WithError(err).WithField("car_id", car.ID).Warn("admin announce failed")
		}
	}
	return nil
}

// resolvePriceCategory berilgan kategoriyani tekshiradi yoki mosini tanlaydi
func (u *catalogUseCase) resolvePriceCategory(ctx context.Context, car *entity.Car) error {
	if car.PriceCategoryID != 0 {
		cat, err := u.catalogRepo.GetPriceCategory(ctx, car.PriceCategoryID)
		if err != nil {
			return fmt.Errorf("price category %d: %w", car.PriceCategoryID, err)
		}
		if !cat.Contains(car.Price) {
			return fmt.Errorf("%w: %.0f not in %s", entity.ErrPriceOutOfCategory, car.Price, cat.Name)
		}
		return nil
	}

	cats, err := u.catalogRepo.ListPriceCategories(ctx)
	if err != nil {
		return fmt.Errorf("list price categories: %w", err)
	}
	for _, c := range cats {
		if c.IsActive && c.Contains(car.Price) {
			car.PriceCategoryID = c.ID
			return nil
		}
	}
	return nil
}

// ListByPriceCategory kategoriya oralig'idagi aktiv e'lonlar
func (u *catalogUseCase) ListByPriceCategory(ctx context.Context, categoryID int64) ([]entity.Car, error) {
	cat, err := u.catalogRepo.GetPriceCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return u.catalogRepo.ListCars(ctx, entity.CarFilter{
		PriceRange: &entity.PriceRange{Min: cat.MinPrice, Max: cat.MaxPrice},
		Limit:      u.pageSize,
	})
}

// ListByBrand brend bo'yicha aktiv e'lonlar
func (u *catalogUseCase) ListByBrand(ctx context.Context, brandID int64) ([]entity.Car, error) {
	return u.catalogRepo.ListCars(ctx, entity.CarFilter{BrandID: brandID, Limit: u.pageSize})
}

// ListLatest oxirgi aktiv e'lonlar
func (u *catalogUseCase) ListLatest(ctx context.Context) ([]entity.Car, error) {
	return u.catalogRepo.ListCars(ctx, entity.CarFilter{Limit: u.pageSize})
}

// ListBrands aktiv brendlar
func (u *catalogUseCase) ListBrands(ctx context.Context) ([]entity.Brand, error) {
	return u.catalogRepo.ListBrands(ctx, true)
}

// GetBrand ID bo'yicha brend
func (u *catalogUseCase) GetBrand(ctx context.Context, id int64) (*entity.Brand, error) {
	return u.catalogRepo.GetBrand(ctx, id)
}

// ListPriceCategories aktiv narx kategoriyalari
func (u *catalogUseCase) ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error) {
	cats, err := u.catalogRepo.ListPriceCategories(ctx)
	if err != nil {
		return nil, err
	}
	active := cats[:0]
	for _, c := range cats {
		if c.IsActive {
			active = append(active, c)
		}
	}
	return active, nil
}

// GetCar bitta e'lon
func (u *catalogUseCase) GetCar(ctx context.Context, id int64) (*entity.Car, error) {
	return u.catalogRepo.GetCar(ctx, id)
}

// DeactivateCar e'lonni katalogdan yashirish
func (u *catalogUseCase) DeactivateCar(ctx context.Context, id int64) error {
	if err := u.catalogRepo.SetCarActive(ctx, id, false); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return err
		}
		return fmt.Errorf("deactivate car %d: %w", id, err)
	}
	log.FromContext(ctx).WithField("car_id", id).Info("car listing deactivated")
	return nil
}
