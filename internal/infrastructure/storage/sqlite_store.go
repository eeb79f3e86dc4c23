package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// SQLiteStore SQLite asosidagi katalog va buyurtmalar ombori.
// repository.CatalogRepository va repository.OrderRepository ni amalga oshiradi.
type SQLiteStore struct {
	db *sql.DB
}

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteStore SQLite faylini ochish va sxemani yaratish
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path bo'sh bo'lmasligi kerak")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("db papkasini yaratib bo'lmadi: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite ochilmadi: %w", err)
	}
	// sqlite bitta yozuvchini ko'taradi
	db.SetMaxOpenConns(1)

	if err := createCatalogSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func createCatalogSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS brands (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE COLLATE NOCASE,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS car_models (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL COLLATE NOCASE,
	brand_id INTEGER NOT NULL REFERENCES brands(id),
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL,
	UNIQUE (brand_id, name)
);
CREATE TABLE IF NOT EXISTS price_categories (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	min_price REAL NOT NULL,
	max_price REAL NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS cars (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price REAL NOT NULL,
	price_category_id INTEGER REFERENCES price_categories(id),
	brand_id INTEGER REFERENCES brands(id),
	model_id INTEGER REFERENCES car_models(id),
	year INTEGER NOT NULL DEFAULT 0,
	mileage INTEGER NOT NULL DEFAULT 0,
	fuel_type TEXT NOT NULL DEFAULT '',
	transmission TEXT NOT NULL DEFAULT '',
	color TEXT NOT NULL DEFAULT '',
	engine_capacity REAL NOT NULL DEFAULT 0,
	photo_url1 TEXT NOT NULL DEFAULT '',
	photo_url2 TEXT NOT NULL DEFAULT '',
	photo_url3 TEXT NOT NULL DEFAULT '',
	photo_url4 TEXT NOT NULL DEFAULT '',
	is_active INTEGER NOT NULL DEFAULT 1,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cars_active_created ON cars (is_active, created_at);
CREATE TABLE IF NOT EXISTS orders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	car_id INTEGER REFERENCES cars(id),
	chat_id INTEGER NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	full_name TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS sell_requests (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	chat_id INTEGER NOT NULL,
	username TEXT NOT NULL DEFAULT '',
	first_name TEXT NOT NULL DEFAULT '',
	car_brand TEXT NOT NULL DEFAULT '',
	car_model TEXT NOT NULL DEFAULT '',
	car_year INTEGER NOT NULL DEFAULT 0,
	car_mileage INTEGER NOT NULL DEFAULT 0,
	car_price REAL NOT NULL DEFAULT 0,
	car_description TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'new',
	created_at TIMESTAMP NOT NULL
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema yaratib bo'lmadi: %w", err)
	}
	return nil
}

// Close ulanishni yopish
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func notFound(kind string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", kind, id, entity.ErrNotFound)
	}
	return err
}

// FindOrCreateBrand nom bo'yicha brendni topish yoki yaratish
func (s *SQLiteStore) FindOrCreateBrand(ctx context.Context, name string) (*entity.Brand, error) {
	return findOrCreateBrand(ctx, s.db, name)
}

func findOrCreateBrand(ctx context.Context, q sqlQuerier, name string) (*entity.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty brand name", entity.ErrInvalidCar)
	}

	var b entity.Brand
	err := q.QueryRowContext(ctx, `SELECT id, name, is_active, created_at FROM brands WHERE name = ? COLLATE NOCASE`, name).
		Scan(&b.ID, &b.Name, &b.IsActive, &b.CreatedAt)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	b = entity.Brand{Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	res, err := q.ExecContext(ctx, `INSERT INTO brands (name, is_active, created_at) VALUES (?, ?, ?)`, b.Name, b.IsActive, b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBrand ID bo'yicha brend
func (s *SQLiteStore) GetBrand(ctx context.Context, id int64) (*entity.Brand, error) {
	var b entity.Brand
	err := s.db.QueryRowContext(ctx, `SELECT id, name, is_active, created_at FROM brands WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.IsActive, &b.CreatedAt)
	if err != nil {
		return nil, notFound("brand", id, err)
	}
	return &b, nil
}

// ListBrands brendlar ro'yxati
func (s *SQLiteStore) ListBrands(ctx context.Context, activeOnly bool) ([]entity.Brand, error) {
	query := `SELECT id, name, is_active, created_at FROM brands`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var brands []entity.Brand
	for rows.Next() {
		var b entity.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.IsActive, &b.CreatedAt); err != nil {
			return nil, err
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// FindOrCreateModel brend ichida modelni topish yoki yaratish
func (s *SQLiteStore) FindOrCreateModel(ctx context.Context, brandID int64, name string) (*entity.CarModel, error) {
	return findOrCreateModel(ctx, s.db, brandID, name)
}

func findOrCreateModel(ctx context.Context, q sqlQuerier, brandID int64, name string) (*entity.CarModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty model name", entity.ErrInvalidCar)
	}

	var m entity.CarModel
	err := q.QueryRowContext(ctx, `SELECT id, name, brand_id, is_active, created_at FROM car_models WHERE brand_id = ? AND name = ? COLLATE NOCASE`, brandID, name).
		Scan(&m.ID, &m.Name, &m.BrandID, &m.IsActive, &m.CreatedAt)
	if err == nil {
		return &m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	m = entity.CarModel{Name: name, BrandID: brandID, IsActive: true, CreatedAt: time.Now().UTC()}
	res, err := q.ExecContext(ctx, `INSERT INTO car_models (name, brand_id, is_active, created_at) VALUES (?, ?, ?, ?)`, m.Name, m.BrandID, m.IsActive, m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPriceCategories narx kategoriyalari
func (s *SQLiteStore) ListPriceCategories(ctx context.Context) ([]entity.PriceCategory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, min_price, max_price, is_active, created_at FROM price_categories ORDER BY min_price, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []entity.PriceCategory
	for rows.Next() {
		var c entity.PriceCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.MinPrice, &c.MaxPrice, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetPriceCategory ID bo'yicha kategoriya
func (s *SQLiteStore) GetPriceCategory(ctx context.Context, id int64) (*entity.PriceCategory, error) {
	var c entity.PriceCategory
	err := s.db.QueryRowContext(ctx, `SELECT id, name, min_price, max_price, is_active, created_at FROM price_categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.MinPrice, &c.MaxPrice, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, notFound("price category", id, err)
	}
	return &c, nil
}

// SavePriceCategory kategoriya qo'shish
func (s *SQLiteStore) SavePriceCategory(ctx context.Context, category *entity.PriceCategory) error {
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO price_categories (name, min_price, max_price, is_active, created_at) VALUES (?, ?, ?, ?, ?)`,
		category.Name, category.MinPrice, category.MaxPrice, category.IsActive, category.CreatedAt.UTC())
	if err != nil {
		return err
	}
	category.ID, err = res.LastInsertId()
	return err
}

// CreateCar e'lonni brend/model bilan bitta tranzaksiyada saqlash
func (s *SQLiteStore) CreateCar(ctx context.Context, car *entity.Car) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if car.BrandID == 0 && strings.TrimSpace(car.BrandName) != "" {
		brand, err := findOrCreateBrand(ctx, tx, car.BrandName)
		if err != nil {
			tx.Rollback()
			return err
		}
		car.BrandID = brand.ID
		car.BrandName = brand.Name
	}

	if car.ModelID == 0 && car.BrandID != 0 && strings.TrimSpace(car.ModelName) != "" {
		model, err := findOrCreateModel(ctx, tx, car.BrandID, car.ModelName)
		if err != nil {
			tx.Rollback()
			return err
		}
		car.ModelID = model.ID
		car.ModelName = model.Name
	}

	if car.CreatedAt.IsZero() {
		car.CreatedAt = time.Now()
	}
	car.CreatedAt = car.CreatedAt.UTC()

	res, err := tx.ExecContext(ctx, `
INSERT INTO cars (
	title, description, price, price_category_id, brand_id, model_id, year, mileage,
	fuel_type, transmission, color, engine_capacity,
	photo_url1, photo_url2, photo_url3, photo_url4, is_active, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		car.Title, car.Description, car.Price, nullID(car.PriceCategoryID), nullID(car.BrandID), nullID(car.ModelID),
		car.Year, car.Mileage, car.FuelType, car.Transmission, car.Color, car.EngineCapacity,
		car.Photos[0], car.Photos[1], car.Photos[2], car.Photos[3], car.IsActive, car.CreatedAt)
	if err != nil {
		tx.Rollback()
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	car.ID = id
	return nil
}

const carColumns = `
	c.id, c.title, c.description, c.price, c.price_category_id, c.brand_id, c.model_id,
	COALESCE(b.name, ''), COALESCE(m.name, ''), c.year, c.mileage, c.fuel_type, c.transmission,
	c.color, c.engine_capacity, c.photo_url1, c.photo_url2, c.photo_url3, c.photo_url4,
	c.is_active, c.created_at
FROM cars c
LEFT JOIN brands b ON b.id = c.brand_id
LEFT JOIN car_models m ON m.id = c.model_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCar(row rowScanner) (entity.Car, error) {
	var (
		car                          entity.Car
		categoryID, brandID, modelID sql.NullInt64
	)
	err := row.Scan(&car.ID, &car.Title, &car.Description, &car.Price, &categoryID, &brandID, &modelID,
		&car.BrandName, &car.ModelName, &car.Year, &car.Mileage, &car.FuelType, &car.Transmission,
		&car.Color, &car.EngineCapacity, &car.Photos[0], &car.Photos[1], &car.Photos[2], &car.Photos[3],
		&car.IsActive, &car.CreatedAt)
	car.PriceCategoryID = categoryID.Int64
	car.BrandID = brandID.Int64
	car.ModelID = modelID.Int64
	return car, err
}

// GetCar ID bo'yicha e'lon
func (s *SQLiteStore) GetCar(ctx context.Context, id int64) (*entity.Car, error) {
	car, err := scanCar(s.db.QueryRowContext(ctx, `SELECT `+carColumns+` WHERE c.id = ?`, id))
	if err != nil {
		return nil, notFound("car", id, err)
	}
	return &car, nil
}

// ListCars aktiv e'lonlar, eng yangisi birinchi
func (s *SQLiteStore) ListCars(ctx context.Context, filter entity.CarFilter) ([]entity.Car, error) {
	query := `SELECT ` + carColumns + ` WHERE c.is_active = 1`
	var args []any
	if filter.BrandID != 0 {
		query += ` AND c.brand_id = ?`
		args = append(args, filter.BrandID)
	}
	if filter.PriceRange != nil {
		query += ` AND c.price >= ? AND c.price <= ?`
		args = append(args, filter.PriceRange.Min, filter.PriceRange.Max)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cars []entity.Car
	for rows.Next() {
		car, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, car)
	}
	return cars, rows.Err()
}

// SetCarActive e'lonni yoqish/o'chirish
func (s *SQLiteStore) SetCarActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE cars SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "car", id)
}

// CountCars e'lonlar soni
func (s *SQLiteStore) CountCars(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM cars`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	var count int
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, entity.ErrNotFound)
	}
	return nil
}

// CreateOrder buyurtmani saqlash
func (s *SQLiteStore) CreateOrder(ctx context.Context, order *entity.Order) error {
	if order.Status == "" {
		order.Status = entity.StatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.CreatedAt = order.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `INSERT INTO orders (car_id, chat_id, username, first_name, full_name, phone, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		nullID(order.CarID), order.Requester.ChatID, order.Requester.Username, order.Requester.FirstName,
		order.FullName, order.Phone, string(order.Status), order.CreatedAt)
	if err != nil {
		return err
	}
	order.ID, err = res.LastInsertId()
	return err
}

// CreateSellRequest sotish arizasini saqlash
func (s *SQLiteStore) CreateSellRequest(ctx context.Context, req *entity.SellRequest) error {
	if req.Status == "" {
		req.Status = entity.StatusNew
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	req.CreatedAt = req.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `
INSERT INTO sell_requests (
	chat_id, username, first_name, car_brand, car_model, car_year, car_mileage, car_price,
	car_description, phone, status, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Requester.ChatID, req.Requester.Username, req.Requester.FirstName, req.Brand, req.Model,
		req.Year, req.Mileage, req.Price, req.Description, req.Phone, string(req.Status), req.CreatedAt)
	if err != nil {
		return err
	}
	req.ID, err = res.LastInsertId()
	return err
}

// UpdateOrderStatus buyurtma holatini o'zgartirish
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, id int64, status entity.RequestStatus) error {
	res, err := s.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return requireAffected(res, "order", id)
}

// ListOrders holat bo'yicha buyurtmalar, eng yangisi birinchi
func (s *SQLiteStore) ListOrders(ctx context.Context, status entity.RequestStatus, limit int) ([]entity.Order, error) {
	query := `SELECT id, car_id, chat_id, username, first_name, full_name, phone, status, created_at FROM orders`
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []entity.Order
	for rows.Next() {
		var (
			o      entity.Order
			carID  sql.NullInt64
			status string
		)
		if err := rows.Scan(&o.ID, &carID, &o.Requester.ChatID, &o.Requester.Username, &o.Requester.FirstName,
			&o.FullName, &o.Phone, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.CarID = carID.Int64
		o.Status = entity.RequestStatus(status)
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CountOrders holat bo'yicha buyurtmalar soni
func (s *SQLiteStore) CountOrders(ctx context.Context, status entity.RequestStatus) (int, error) {
	return s.countByStatus(ctx, "orders", status)
}

// CountSellRequests holat bo'yicha arizalar soni
func (s *SQLiteStore) CountSellRequests(ctx context.Context, status entity.RequestStatus) (int, error) {
	return s.countByStatus(ctx, "sell_requests", status)
}

func (s *SQLiteStore) countByStatus(ctx context.Context, table string, status entity.RequestStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE (? = '' OR status = ?)`, table), string(status), string(status)).
		Scan(&count)
	return count, err
}
