package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
	"github.com/suvtekin/auto-bot/internal/log"
)

// ImportResult Excel importi natijasi
type ImportResult struct {
	Imported int
	Skipped  int
}

// AdminUseCase admin bilan bog'liq business logic
type AdminUseCase interface {
	// IsAdmin chat admin chatmi
	IsAdmin(chatID int64) bool

	// ImportCars Excel (byte) dan e'lonlarni yuklash
	ImportCars(ctx context.Context, data []byte, filename string, announce bool) (ImportResult, error)

	// ImportCarsFromFile Excel fayldan e'lonlarni yuklash
	ImportCarsFromFile(ctx context.Context, path string) (ImportResult, error)

	// Stats katalog statistikasi
	Stats(ctx context.Context) (entity.CatalogStats, error)

	// RecentOrders oxirgi buyurtmalar
	RecentOrders(ctx context.Context, limit int) ([]entity.Order, error)

	// SetOrderStatus buyurtma holatini o'zgartirish
	SetOrderStatus(ctx context.Context, orderID int64, status string) error

	// DeactivateCar e'lonni yashirish
	DeactivateCar(ctx context.Context, carID int64) error
}

type adminUseCase struct {
	adminChatID int64
	catalog     CatalogUseCase
	catalogRepo repository.CatalogRepository
	orderRepo   repository.OrderRepository
	excelParser repository.ExcelParser
}

// NewAdminUseCase yangi AdminUseCase yaratish
func NewAdminUseCase(
	adminChatID int64,
	catalog CatalogUseCase,
	catalogRepo repository.CatalogRepository,
	orderRepo repository.OrderRepository,
	excelParser repository.ExcelParser,
) AdminUseCase {
	return &adminUseCase{
		adminChatID: adminChatID,
		catalog:     catalog,
		catalogRepo: catalogRepo,
		orderRepo:   orderRepo,
		excelParser: excelParser,
	}
}

// IsAdmin chat admin chatmi
func (u *adminUseCase) IsAdmin(chatID int64) bool {
	return u.adminChatID != 0 && chatID == u.adminChatID
}

// logAction admin harakatini log qilish
func logAction(ctx context.Context, action, details string) {
	log.FromContext(ctx).
		WithField("action_id", uuid.New().String()).
		WithField("action", action).
		Info(details)
}

// ImportCars Excel (byte) dan e'lonlarni yuklash
func (u *adminUseCase) ImportCars(ctx context.Context, data []byte, filename string, announce bool) (ImportResult, error) {
	cars, err := u.excelParser.ParseCarsFromBytes(ctx, data, filename)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse excel: %w", err)
	}
	return u.importCars(ctx, cars, filename, announce)
}

// ImportCarsFromFile Excel fayldan e'lonlarni yuklash
func (u *adminUseCase) ImportCarsFromFile(ctx context.Context, path string) (ImportResult, error) {
	cars, err := u.excelParser.ParseCars(ctx, path)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to parse excel: %w", err)
	}
	return u.importCars(ctx, cars, path, false)
}

func (u *adminUseCase) importCars(ctx context.Context, cars []entity.Car, source string, announce bool) (ImportResult, error) {
	var (
		result  ImportResult
		lastErr error
	)
	for i := range cars {
		if err := u.catalog.AddCar(ctx, &cars[i], announce); err != nil {
			result.Skipped++
			lastErr = err
			log.FromContext(ctx).WithError(err).WithField("title", cars[i].Title).Warn("car import skipped")
			continue
		}
		result.Imported++
	}

	logAction(ctx, "import_cars", fmt.Sprintf("imported %d cars (%d skipped) from %s", result.Imported, result.Skipped, source))

	if result.Imported == 0 && lastErr != nil {
		return result, fmt.Errorf("no cars imported: %w", lastErr)
	}
	return result, nil
}

// Stats katalog statistikasi
func (u *adminUseCase) Stats(ctx context.Context) (entity.CatalogStats, error) {
	var (
		stats entity.CatalogStats
		err   error
	)
	if stats.TotalCars, err = u.catalogRepo.CountCars(ctx, false); err != nil {
		return stats, fmt.Errorf("count cars: %w", err)
	}
	if stats.ActiveCars, err = u.catalogRepo.CountCars(ctx, true); err != nil {
		return stats, fmt.Errorf("count active cars: %w", err)
	}
	if stats.NewOrders, err = u.orderRepo.CountOrders(ctx, entity.StatusNew); err != nil {
		return stats, fmt.Errorf("count orders: %w", err)
	}
	if stats.NewSellRequests, err = u.orderRepo.CountSellRequests(ctx, entity.StatusNew); err != nil {
		return stats, fmt.Errorf("count sell requests: %w", err)
	}
	return stats, nil
}

// RecentOrders oxirgi buyurtmalar
func (u *adminUseCase) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	return u.orderRepo.ListOrders(ctx, "", limit)
}

// SetOrderStatus buyurtma holatini o'zgartirish
func (u *adminUseCase) SetOrderStatus(ctx context.Context, orderID int64, status string) error {
	parsed, err := entity.ParseStatus(status)
	if err != nil {
		return err
	}
	if err := u.orderRepo.UpdateOrderStatus(ctx, orderID, parsed); err != nil {
		return err
	}
	logAction(ctx, "set_order_status", fmt.Sprintf("order %d -> %s", orderID, parsed))
	return nil
}

// DeactivateCar e'lonni yashirish
func (u *adminUseCase) DeactivateCar(ctx context.Context, carID int64) error {
	if err := u.catalog.DeactivateCar(ctx, carID); err != nil {
		return err
	}
	logAction(ctx, "deactivate_car", fmt.Sprintf("car %d hidden", carID))
	return nil
}
