package repository

import (
	"context"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// ExcelParser Excel fayllardan e'lonlarni o'qish uchun interface
type ExcelParser interface {
	// ParseCars Excel fayldan e'lonlarni o'qish
	ParseCars(ctx context.Context, filePath string) ([]entity.Car, error)

	// ParseCarsFromBytes byte array dan parse qilish
	ParseCarsFromBytes(ctx context.Context, data []byte, filename string) ([]entity.Car, error)
}
