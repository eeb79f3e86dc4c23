package repository

import (
	"context"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// SessionRepository chat bo'yicha suhbat holatini saqlash uchun interface
type SessionRepository interface {
	// Get sessiyani olish. Topilmasa entity.ErrNotFound
	Get(ctx context.Context, chatID int64) (*entity.Session, error)

	// Set sessiyani saqlash (mavjudini almashtiradi)
	Set(ctx context.Context, session entity.Session) error

	// Clear sessiyani butunlay o'chirish
	Clear(ctx context.Context, chatID int64) error
}
