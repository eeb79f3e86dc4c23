package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisClient "github.com/go-redis/redis"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
)

const sessionKeyPrefix = "autobot:session:"

type sessionRecord struct {
	ChatID      int64     `msgpack:"chat_id"`
	Lang        string    `msgpack:"lang"`
	Action      string    `msgpack:"action"`
	Step        string    `msgpack:"step"`
	CarID       int64     `msgpack:"car_id,omitempty"`
	Brand       string    `msgpack:"brand,omitempty"`
	Model       string    `msgpack:"model,omitempty"`
	Year        int       `msgpack:"year,omitempty"`
	Mileage     int       `msgpack:"mileage,omitempty"`
	Price       float64   `msgpack:"price,omitempty"`
	Description string    `msgpack:"description,omitempty"`
	Phone       string    `msgpack:"phone,omitempty"`
	UpdatedAt   time.Time `msgpack:"updated_at"`
}

// RedisSessionRepository sessiyalarni Redis da TTL bilan saqlaydi
type RedisSessionRepository struct {
	client *redisClient.Client
	ttl    time.Duration
}

// NewRedisSessionRepository Redis ga ulanish
func NewRedisSessionRepository(addr, password string, db int, ttl time.Duration) (*RedisSessionRepository, error) {
	client := redisClient.NewClient(&redisClient.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ga ulanib bo'lmadi: %w", err)
	}
	return &RedisSessionRepository{client: client, ttl: ttl}, nil
}

func sessionKey(chatID int64) string {
	return sessionKeyPrefix + strconv.FormatInt(chatID, 10)
}

func encodeSession(session entity.Session) ([]byte, error) {
	rec := sessionRecord{
		ChatID:      session.ChatID,
		Lang:        string(session.Lang),
		Action:      string(session.Action),
		Step:        string(session.Step),
		CarID:       session.CarID,
		Brand:       session.Sell.Brand,
		Model:       session.Sell.Model,
		Year:        session.Sell.Year,
		Mileage:     session.Sell.Mileage,
		Price:       session.Sell.Price,
		Description: session.Sell.Description,
		Phone:       session.Sell.Phone,
		UpdatedAt:   session.UpdatedAt,
	}
	return msgpack.Marshal(&rec)
}

func decodeSession(data []byte) (*entity.Session, error) {
	var rec sessionRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &entity.Session{
		ChatID: rec.ChatID,
		Lang:   entity.Lang(rec.Lang),
		Action: entity.Action(rec.Action),
		Step:   entity.Step(rec.Step),
		CarID:  rec.CarID,
		Sell: entity.SellDraft{
			Brand:       rec.Brand,
			Model:       rec.Model,
			Year:        rec.Year,
			Mileage:     rec.Mileage,
			Price:       rec.Price,
			Description: rec.Description,
			Phone:       rec.Phone,
		},
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Get sessiyani olish
func (r *RedisSessionRepository) Get(ctx context.Context, chatID int64) (*entity.Session, error) {
	data, err := r.client.Get(sessionKey(chatID)).Bytes()
	if err == redisClient.Nil {
		return nil, fmt.Errorf("session %d: %w", chatID, entity.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	session, err := decodeSession(data)
	if err != nil {
		return nil, fmt.Errorf("session %d decode: %w", chatID, err)
	}
	return session, nil
}

// Set sessiyani saqlash, har yozuvda TTL yangilanadi
func (r *RedisSessionRepository) Set(ctx context.Context, session entity.Session) error {
	session.UpdatedAt = time.Now().UTC()
	data, err := encodeSession(session)
	if err != nil {
		return err
	}
	return r.client.Set(sessionKey(session.ChatID), data, r.ttl).Err()
}

// Clear sessiyani o'chirish
func (r *RedisSessionRepository) Clear(ctx context.Context, chatID int64) error {
	return r.client.Del(sessionKey(chatID)).Err()
}

// Close ulanishni yopish
func (r *RedisSessionRepository) Close() error {
	return r.client.Close()
}
