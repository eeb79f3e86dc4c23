package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
)

type brandRow struct {
	bun.BaseModel `bun:"table:brands,alias:b"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull,unique"`
	IsActive      bool      `bun:"is_active,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type carModelRow struct {
	bun.BaseModel `bun:"table:car_models,alias:cm"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	BrandID       int64     `bun:"brand_id,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type priceCategoryRow struct {
	bun.BaseModel `bun:"table:price_categories,alias:pc"`
	ID            int64     `bun:"id,pk,autoincrement"`
	Name          string    `bun:"name,notnull"`
	MinPrice      float64   `bun:"min_price_usd,notnull"`
	MaxPrice      float64   `bun:"max_price_usd,notnull"`
	IsActive      bool      `bun:"is_active,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

type carRow struct {
	bun.BaseModel   `bun:"table:cars,alias:c"`
	ID              int64        `bun:"id,pk,autoincrement"`
	Title           string       `bun:"title,notnull"`
	Description     string       `bun:"description"`
	Price           float64      `bun:"price_usd,notnull"`
	PriceCategoryID int64        `bun:"price_category_id,nullzero"`
	BrandID         int64        `bun:"brand_id,nullzero"`
	ModelID         int64        `bun:"model_id,nullzero"`
	Year            int          `bun:"year"`
	Mileage         int          `bun:"mileage_km"`
	FuelType        string       `bun:"fuel_type"`
	Transmission    string       `bun:"transmission"`
	Color           string       `bun:"color"`
	EngineCapacity  float64      `bun:"engine_capacity"`
	PhotoURL1       string       `bun:"photo_url1"`
	PhotoURL2       string       `bun:"photo_url2"`
	PhotoURL3       string       `bun:"photo_url3"`
	PhotoURL4       string       `bun:"photo_url4"`
	IsActive        bool         `bun:"is_active,notnull"`
	CreatedAt       time.Time    `bun:"created_at,notnull"`
	Brand           *brandRow    `bun:"rel:belongs-to,join:brand_id=id"`
	Model           *carModelRow `bun:"rel:belongs-to,join:model_id=id"`
}

type orderRow struct {
	bun.BaseModel     `bun:"table:orders,alias:o"`
	ID                int64     `bun:"id,pk,autoincrement"`
	CarID             int64     `bun:"car_id,nullzero"`
	TelegramUserID    int64     `bun:"telegram_user_id,notnull"`
	TelegramUsername  string    `bun:"telegram_username"`
	TelegramFirstName string    `bun:"telegram_first_name"`
	FullName          string    `bun:"full_name"`
	Phone             string    `bun:"phone"`
	Status            string    `bun:"status,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

type sellRequestRow struct {
	bun.BaseModel     `bun:"table:sell_requests,alias:sr"`
	ID                int64     `bun:"id,pk,autoincrement"`
	TelegramUserID    int64     `bun:"telegram_user_id,notnull"`
	TelegramUsername  string    `bun:"telegram_username"`
	TelegramFirstName string    `bun:"telegram_first_name"`
	CarBrand          string    `bun:"car_brand"`
	CarModel          string    `bun:"car_model"`
	CarYear           int       `bun:"car_year"`
	CarMileage        int       `bun:"car_mileage"`
	CarPrice          float64   `bun:"car_price"`
	CarDescription    string    `bun:"car_description"`
	Phone             string    `bun:"phone"`
	Status            string    `bun:"status,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

// PostgresStore bun + pgdriver asosidagi katalog va buyurtmalar ombori
type PostgresStore struct {
	db *bun.DB
}

// NewPostgresStore Postgres ga ulanish va jadvallarni yaratish
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqlDb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqlDb, pgdialect.New())

	db.AddQueryHook(bundebug.NewQueryHook(
		bundebug.WithEnabled(false),

		// BUNDEBUG=1 logs failed queries
		// BUNDEBUG=2 logs all queries
		bundebug.FromEnv("BUNDEBUG")))

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ga ulanib bo'lmadi: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	models := []any{
		(*brandRow)(nil),
		(*carModelRow)(nil),
		(*priceCategoryRow)(nil),
		(*carRow)(nil),
		(*orderRow)(nil),
		(*sellRequestRow)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("schema yaratib bo'lmadi: %w", err)
		}
	}
	return nil
}

// Close ulanishni yopish
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (r brandRow) toEntity() entity.Brand {
	return entity.Brand{ID: r.ID, Name: r.Name, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

func (r carModelRow) toEntity() entity.CarModel {
	return entity.CarModel{ID: r.ID, Name: r.Name, BrandID: r.BrandID, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

func (r priceCategoryRow) toEntity() entity.PriceCategory {
	return entity.PriceCategory{ID: r.ID, Name: r.Name, MinPrice: r.MinPrice, MaxPrice: r.MaxPrice, IsActive: r.IsActive, CreatedAt: r.CreatedAt}
}

func (r carRow) toEntity() entity.Car {
	car := entity.Car{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description,
		Price:           r.Price,
		PriceCategoryID: r.PriceCategoryID,
		BrandID:         r.BrandID,
		ModelID:         r.ModelID,
		Year:            r.Year,
		Mileage:         r.Mileage,
		FuelType:        r.FuelType,
		Transmission:    r.Transmission,
		Color:           r.Color,
		EngineCapacity:  r.EngineCapacity,
		Photos:          [entity.PhotoSlots]string{r.PhotoURL1, r.PhotoURL2, r.PhotoURL3, r.PhotoURL4},
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
	}
	if r.Brand != nil {
		car.BrandName = r.Brand.Name
	}
	if r.Model != nil {
		car.ModelName = r.Model.Name
	}
	return car
}

func carRowFromEntity(car *entity.Car) *carRow {
	return &carRow{
		Title:           car.Title,
		Description:     car.Description,
		Price:           car.Price,
		PriceCategoryID: car.PriceCategoryID,
		BrandID:         car.BrandID,
		ModelID:         car.ModelID,
		Year:            car.Year,
		Mileage:         car.Mileage,
		FuelType:        car.FuelType,
		Transmission:    car.Transmission,
		Color:           car.Color,
		EngineCapacity:  car.EngineCapacity,
		PhotoURL1:       car.Photos[0],
		PhotoURL2:       car.Photos[1],
		PhotoURL3:       car.Photos[2],
		PhotoURL4:       car.Photos[3],
		IsActive:        car.IsActive,
		CreatedAt:       car.CreatedAt,
	}
}

// FindOrCreateBrand nom bo'yicha brendni topish yoki yaratish
func (s *PostgresStore) FindOrCreateBrand(ctx context.Context, name string) (*entity.Brand, error) {
	row, err := pgFindOrCreateBrand(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	brand := row.toEntity()
	return &brand, nil
}

func pgFindOrCreateBrand(ctx context.Context, idb bun.IDB, name string) (*brandRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty brand name", entity.ErrInvalidCar)
	}

	row := new(brandRow)
	err := idb.NewSelect().Model(row).Where("lower(b.name) = lower(?)", name).Limit(1).Scan(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = &brandRow{Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	if _, err := idb.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// GetBrand ID bo'yicha brend
func (s *PostgresStore) GetBrand(ctx context.Context, id int64) (*entity.Brand, error) {
	row := new(brandRow)
	if err := s.db.NewSelect().Model(row).Where("b.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound("brand", id, err)
	}
	brand := row.toEntity()
	return &brand, nil
}

// ListBrands brendlar ro'yxati
func (s *PostgresStore) ListBrands(ctx context.Context, activeOnly bool) ([]entity.Brand, error) {
	var rows []brandRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("lower(b.name)")
	if activeOnly {
		q = q.Where("b.is_active = ?", true)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	brands := make([]entity.Brand, 0, len(rows))
	for _, r := range rows {
		brands = append(brands, r.toEntity())
	}
	return brands, nil
}

// FindOrCreateModel brend ichida modelni topish yoki yaratish
func (s *PostgresStore) FindOrCreateModel(ctx context.Context, brandID int64, name string) (*entity.CarModel, error) {
	row, err := pgFindOrCreateModel(ctx, s.db, brandID, name)
	if err != nil {
		return nil, err
	}
	model := row.toEntity()
	return &model, nil
}

func pgFindOrCreateModel(ctx context.Context, idb bun.IDB, brandID int64, name string) (*carModelRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty model name", entity.ErrInvalidCar)
	}

	row := new(carModelRow)
	err := idb.NewSelect().Model(row).
		Where("cm.brand_id = ?", brandID).
		Where("lower(cm.name) = lower(?)", name).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	row = &carModelRow{Name: name, BrandID: brandID, IsActive: true, CreatedAt: time.Now().UTC()}
	if _, err := idb.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return nil, err
	}
	return row, nil
}

// ListPriceCategories narx kategoriyalari
func (s *PostgresStore) ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error) {
	var rows []priceCategoryRow
	if err := s.db.NewSelect().Model(&rows).Order("min_price_usd", "id").Scan(ctx); err != nil {
		return nil, err
	}

	cats := make([]entity.PriceCategory, 0, len(rows))
	for _, r := range rows {
		cats = append(cats, r.toEntity())
	}
	return cats, nil
}

// GetPriceCategory ID bo'yicha kategoriya
func (s *PostgresStore) GetPriceCategory(ctx context.Context, id int64) (*entity.PriceCategory, error) {
	row := new(priceCategoryRow)
	if err := s.db.NewSelect().Model(row).Where("pc.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound("price category", id, err)
	}
	cat := row.toEntity()
	return &cat, nil
}

// SavePriceCategory kategoriya qo'shish
func (s *PostgresStore) SavePriceCategory(ctx context.Context, category *entity.PriceCategory) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	row := &priceCategoryRow{
		Name:      category.Name,
		MinPrice:  category.MinPrice,
		MaxPrice:  category.MaxPrice,
		IsActive:  category.IsActive,
		CreatedAt: category.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return err
	}
	category.ID = row.ID
	return nil
}

// CreateCar e'lonni brend/model bilan bitta tranzaksiyada saqlash
func (s *PostgresStore) CreateCar(ctx context.Context, car *entity.Car) error {
	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now().UTC()
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if car.BrandID == 0 && strings.TrimSpace(car.BrandName) != "" {
			brand, err := pgFindOrCreateBrand(ctx, tx, car.BrandName)
			if err != nil {
				return err
			}
			car.BrandID = brand.ID
			car.BrandName = brand.Name
		}

		if car.ModelID == 0 && car.BrandID != 0 && strings.TrimSpace(car.ModelName) != "" {
			model, err := pgFindOrCreateModel(ctx, tx, car.BrandID, car.ModelName)
			if err != nil {
				return err
			}
			car.ModelID = model.ID
			car.ModelName = model.Name
		}

		row := carRowFromEntity(car)
		if _, err := tx.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
			return err
		}
		car.ID = row.ID
		return nil
	})
}

// GetCar ID bo'yicha e'lon
func (s *PostgresStore) GetCar(ctx context.Context, id int64) (*entity.Car, error) {
	row := new(carRow)
	err := s.db.NewSelect().Model(row).
		Relation("Brand").
		Relation("Model").
		Where("c.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, notFound("car", id, err)
	}
	car := row.toEntity()
	return &car, nil
}

// ListCars aktiv e'lonlar, eng yangisi birinchi
func (s *PostgresStore) ListCars(ctx context.Context, filter entity.CarFilter) ([]entity.Car, error) {
	var rows []carRow
	q := s.db.NewSelect().Model(&rows).
		Relation("Brand").
		Relation("Model").
		Where("c.is_active = ?", true)
	if filter.BrandID != 0 {
		q = q.Where("c.brand_id = ?", filter.BrandID)
	}
	if filter.PriceRange != nil {
		q = q.Where("c.price_usd >= ?", filter.PriceRange.Min).Where("c.price_usd <= ?", filter.PriceRange.Max)
	}
	q = q.OrderExpr("c.created_at DESC, c.id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	cars := make([]entity.Car, 0, len(rows))
	for _, r := range rows {
		cars = append(cars, r.toEntity())
	}
	return cars, nil
}

// SetCarActive e'lonni yoqish/o'chirish
func (s *PostgresStore) SetCarActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.NewUpdate().Model((*carRow)(nil)).Set("is_active = ?", active).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, "car", id)
}

// CountCars e'lonlar soni
func (s *PostgresStore) CountCars(ctx context.Context, activeOnly bool) (int, error) {
	q := s.db.NewSelect().Model((*carRow)(nil))
	if activeOnly {
		q = q.Where("c.is_active = ?", true)
	}
	return q.Count(ctx)
}

// CreateOrder buyurtmani saqlash
func (s *PostgresStore) CreateOrder(ctx context.Context, order *entity.Order) error {
	if order.Status == "" {
		order.Status = entity.StatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC()
	}
	row := &orderRow{
		CarID:             order.CarID,
		TelegramUserID:    order.Requester.ChatID,
		TelegramUsername:  order.Requester.Username,
		TelegramFirstName: order.Requester.FirstName,
		FullName:          order.FullName,
		Phone:             order.Phone,
		Status:            string(order.Status),
		CreatedAt:         order.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return err
	}
	order.ID = row.ID
	return nil
}

// CreateSellRequest sotish arizasini saqlash
func (s *PostgresStore) CreateSellRequest(ctx context.Context, req *entity.SellRequest) error {
	if req.Status == "" {
		req.Status = entity.StatusNew
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	row := &sellRequestRow{
		TelegramUserID:    req.Requester.ChatID,
		TelegramUsername:  req.Requester.Username,
		TelegramFirstName: req.Requester.FirstName,
		CarBrand:          req.Brand,
		CarModel:          req.Model,
		CarYear:           req.Year,
		CarMileage:        req.Mileage,
		CarPrice:          req.Price,
		CarDescription:    req.Description,
		Phone:             req.Phone,
		Status:            string(req.Status),
		CreatedAt:         req.CreatedAt,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("id").Exec(ctx); err != nil {
		return err
	}
	req.ID = row.ID
	return nil
}

// UpdateOrderStatus buyurtma holatini o'zgartirish
func (s *PostgresStore) UpdateOrderStatus(ctx context.Context, id int64, status entity.RequestStatus) error {
	res, err := s.db.NewUpdate().Model((*orderRow)(nil)).Set("status = ?", string(status)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, "order", id)
}

// ListOrders holat bo'yicha buyurtmalar, eng yangisi birinchi
func (s *PostgresStore) ListOrders(ctx context.Context, status entity.RequestStatus, limit int) ([]entity.Order, error) {
	var rows []orderRow
	q := s.db.NewSelect().Model(&rows).Order("id DESC")
	if status != "" {
		q = q.Where("o.status = ?", string(status))
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	orders := make([]entity.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, entity.Order{
			ID:    r.ID,
			CarID: r.CarID,
			Requester: entity.Requester{
				ChatID:    r.TelegramUserID,
				Username:  r.TelegramUsername,
				FirstName: r.TelegramFirstName,
			},
			FullName:  r.FullName,
			Phone:     r.Phone,
			Status:    entity.RequestStatus(r.Status),
			CreatedAt: r.CreatedAt,
		})
	}
	return orders, nil
}

// CountOrders holat bo'yicha buyurtmalar soni
func (s *PostgresStore) CountOrders(ctx context.Context, status entity.RequestStatus) (int, error) {
	q := s.db.NewSelect().Model((*orderRow)(nil))
	if status != "" {
		q = q.Where("o.status = ?", string(status))
	}
	return q.Count(ctx)
}

// CountSellRequests holat bo'yicha arizalar soni
func (s *PostgresStore) CountSellRequests(ctx context.Context, status entity.RequestStatus) (int, error) {
	q := s.db.NewSelect().Model((*sellRequestRow)(nil))
	if status != "" {
		q = q.Where("sr.status = ?", string(status))
	}
	return q.Count(ctx)
}
