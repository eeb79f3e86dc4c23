package messenger

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/log"
)

// BotAPI tgbotapi.BotAPI ning bizga kerakli qismi
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TelegramNotifier Bot API orqali xabar yuboruvchi
type TelegramNotifier struct {
	bot BotAPI
}

// NewTelegramNotifier yangi notifier
func NewTelegramNotifier(bot BotAPI) *TelegramNotifier {
	return &TelegramNotifier{bot: bot}
}

// SendText HTML formatdagi matnli xabar
func (n *TelegramNotifier) SendText(ctx context.Context, chatID int64, text string, keyboard *entity.Keyboard) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if markup := replyMarkup(keyboard); markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// Announce rasm + izoh yuborish. Rasm rad etilsa shu izoh va klaviatura bilan matn yuboriladi.
func (n *TelegramNotifier) Announce(ctx context.Context, chatID int64, photoURL, caption string, keyboard *entity.Keyboard) error {
	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return n.SendText(ctx, chatID, caption, keyboard)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if markup := replyMarkup(keyboard); markup != nil {
		photo.ReplyMarkup = markup
	}

	if _, err := n.bot.Send(photo); err != nil {
		log.FromContext(ctx).WithError(err).
			WithField("chat_id", chatID).
			WithField("photo_url", photoURL).
			Warn("photo rejected, falling back to text")
		return n.SendText(ctx, chatID, caption, keyboard)
	}
	return nil
}

// AnswerCallback callback so'roviga bo'sh javob
func (n *TelegramNotifier) AnswerCallback(ctx context.Context, callbackID string) error {
	if callbackID == "" {
		return nil
	}
	if _, err := n.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answer callback %s: %w", callbackID, err)
	}
	return nil
}

func replyMarkup(keyboard *entity.Keyboard) any {
	if keyboard.Empty() {
		return nil
	}
	if keyboard.Remove {
		return tgbotapi.NewRemoveKeyboard(true)
	}

	if keyboard.Inline {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(keyboard.Rows))
		for _, row := range keyboard.Rows {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				if b.URL != "" {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				} else {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.CallbackData))
				}
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard.Rows))
	for _, row := range keyboard.Rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, b := range row {
			if b.RequestContact {
				buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(b.Text))
			} else {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
			}
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.OneTimeKeyboard = keyboard.OneTime
	return markup
}
