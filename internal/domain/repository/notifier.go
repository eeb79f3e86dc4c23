package repository

import (
	"context"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

// Notifier chatga xabar yuborish transporti
type Notifier interface {
	// SendText matnli xabar
	SendText(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) error

	// Announce rasm + izoh. Rasm yuborilmasa matn sifatida yuboriladi.
	Announce(ctx context.Context, chatID int64, photoURL, caption string, keyboard *entity.Keyboard) error

	// AnswerCallback callback spinnerini to'xtatish
	AnswerCallback(ctx context.Context, callbackID string) error
}
