package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
)

type memoryCatalogRepository struct {
	mu         sync.RWMutex
	brands     map[int64]entity.Brand
	models     map[int64]entity.CarModel
	categories map[int64]entity.PriceCategory
	cars       map[int64]entity.Car

	// har bir jadval uchun alohida autoincrement
	brandSeq    int64
	modelSeq    int64
	categorySeq int64
	carSeq      int64
}

// NewMemoryCatalogRepository in-memory katalog repository yaratish
func NewMemoryCatalogRepository() repository.CatalogRepository {
	return &memoryCatalogRepository{
		brands:     make(map[int64]entity.Brand),
		models:     make(map[int64]entity.CarModel),
		categories: make(map[int64]entity.PriceCategory),
		cars:       make(map[int64]entity.Car),
	}
}

func nextID(seq *int64) int64 {
	*seq++
	return *seq
}

// FindOrCreateBrand nom bo'yicha brendni topish yoki yaratish
func (m *memoryCatalogRepository) FindOrCreateBrand(ctx context.Context, name string) (*entity.Brand, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	brand, err := m.findOrCreateBrandLocked(name)
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (m *memoryCatalogRepository) findOrCreateBrandLocked(name string) (entity.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.Brand{}, fmt.Errorf("%w: empty brand name", entity.ErrInvalidCar)
	}
	for _, b := range m.brands {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	brand := entity.Brand{ID: nextID(&m.brandSeq), Name: name, IsActive: true, CreatedAt: time.Now()}
	m.brands[brand.ID] = brand
	return brand, nil
}

// GetBrand ID bo'yicha brend
func (m *memoryCatalogRepository) GetBrand(ctx context.Context, id int64) (*entity.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	brand, exists := m.brands[id]
	if !exists {
		return nil, fmt.Errorf("brand %d: %w", id, entity.ErrNotFound)
	}
	return &brand, nil
}

// ListBrands brendlar ro'yxati
func (m *memoryCatalogRepository) ListBrands(ctx context.Context, activeOnly bool) ([]entity.Brand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	brands := make([]entity.Brand, 0, len(m.brands))
	for _, b := range m.brands {
		if activeOnly && !b.IsActive {
			continue
		}
		brands = append(brands, b)
	}
	sort.Slice(brands, func(i, j int) bool {
		return strings.ToLower(brands[i].Name) < strings.ToLower(brands[j].Name)
	})
	return brands, nil
}

// FindOrCreateModel brend ichida modelni topish yoki yaratish
func (m *memoryCatalogRepository) FindOrCreateModel(ctx context.Context, brandID int64, name string) (*entity.CarModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	model, err := m.findOrCreateModelLocked(brandID, name)
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (m *memoryCatalogRepository) findOrCreateModelLocked(brandID int64, name string) (entity.CarModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return entity.CarModel{}, fmt.Errorf("%w: empty model name", entity.ErrInvalidCar)
	}
	if _, ok := m.brands[brandID]; !ok {
		return entity.CarModel{}, fmt.Errorf("brand %d: %w", brandID, entity.ErrNotFound)
	}
	for _, md := range m.models {
		if md.BrandID == brandID && strings.EqualFold(md.Name, name) {
			return md, nil
		}
	}
	model := entity.CarModel{ID: nextID(&m.modelSeq), Name: name, BrandID: brandID, IsActive: true, CreatedAt: time.Now()}
	m.models[model.ID] = model
	return model, nil
}

// ListPriceCategories narx kategoriyalari
func (m *memoryCatalogRepository) ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cats := make([]entity.PriceCategory, 0, len(m.categories))
	for _, c := range m.categories {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].MinPrice == cats[j].MinPrice {
			return cats[i].ID < cats[j].ID
		}
		return cats[i].MinPrice < cats[j].MinPrice
	})
	return cats, nil
}

// GetPriceCategory ID bo'yicha kategoriya
func (m *memoryCatalogRepository) GetPriceCategory(ctx context.Context, id int64) (*entity.PriceCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cat, exists := m.categories[id]
	if !exists {
		return nil, fmt.Errorf("price category %d: %w", id, entity.ErrNotFound)
	}
	return &cat, nil
}

// SavePriceCategory kategoriya qo'shish
func (m *memoryCatalogRepository) SavePriceCategory(ctx context.Context, category *entity.PriceCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if category.ID == 0 {
		category.ID = nextID(&m.categorySeq)
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}
	m.categories[category.ID] = *category
	return nil
}

// CreateCar e'lonni saqlash
func (m *memoryCatalogRepository) CreateCar(ctx context.Context, car *entity.Car) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if car.BrandID == 0 && strings.TrimSpace(car.BrandName) != "" {
		brand, err := m.findOrCreateBrandLocked(car.BrandName)
		if err != nil {
			return err
		}
		car.BrandID = brand.ID
	}
	if brand, ok := m.brands[car.BrandID]; ok {
		car.BrandName = brand.Name
	}
	if car.ModelID == 0 && car.BrandID != 0 && strings.TrimSpace(car.ModelName) != "" {
		model, err := m.findOrCreateModelLocked(car.BrandID, car.ModelName)
		if err != nil {
			return err
		}
		car.ModelID = model.ID
	}
	if model, ok := m.models[car.ModelID]; ok {
		car.ModelName = model.Name
	}

	car.ID = nextID(&m.carSeq)
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now()
	}
	m.cars[car.ID] = *car
	return nil
}

// GetCar ID bo'yicha e'lon
func (m *memoryCatalogRepository) GetCar(ctx context.Context, id int64) (*entity.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	car, exists := m.cars[id]
	if !exists {
		return nil, fmt.Errorf("car %d: %w", id, entity.ErrNotFound)
	}
	return &car, nil
}

// ListCars aktiv e'lonlar, eng yangisi birinchi
func (m *memoryCatalogRepository) ListCars(ctx context.Context, filter entity.CarFilter) ([]entity.Car, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cars []entity.Car
	for _, car := range m.cars {
		if filter.Matches(car) {
			cars = append(cars, car)
		}
	}

	sort.Slice(cars, func(i, j int) bool {
		if cars[i].CreatedAt.Equal(cars[j].CreatedAt) {
			return cars[i].ID > cars[j].ID
		}
		return cars[i].CreatedAt.After(cars[j].CreatedAt)
	})

	if filter.Limit > 0 && len(cars) > filter.Limit {
		cars = cars[:filter.Limit]
	}
	return cars, nil
}

// SetCarActive e'lonni yoqish/o'chirish
func (m *memoryCatalogRepository) SetCarActive(ctx context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	car, exists := m.cars[id]
	if !exists {
		return fmt.Errorf("car %d: %w", id, entity.ErrNotFound)
	}
	car.IsActive = active
	m.cars[id] = car
	return nil
}

// CountCars e'lonlar soni
func (m *memoryCatalogRepository) CountCars(ctx context.Context, activeOnly bool) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !activeOnly {
		return len(m.cars), nil
	}
	count := 0
	for _, car := range m.cars {
		if car.IsActive {
			count++
		}
	}
	return count, nil
}
