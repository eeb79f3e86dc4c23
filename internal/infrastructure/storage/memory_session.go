package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
)

// memorySessionRepository jarayon xotirasidagi sessiyalar. Restartda yo'qoladi.
type memorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[int64]entity.Session
}

// NewMemorySessionRepository in-memory session repository yaratish
func NewMemorySessionRepository() repository.SessionRepository {
	return &memorySessionRepository{
		sessions: make(map[int64]entity.Session),
	}
}

// Get sessiyani olish
func (m *memorySessionRepository) Get(ctx context.Context, chatID int64) (*entity.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[chatID]
	if !exists {
		return nil, fmt.Errorf("session %d: %w", chatID, entity.ErrNotFound)
	}
	return &session, nil
}

// Set sessiyani saqlash
func (m *memorySessionRepository) Set(ctx context.Context, session entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.UpdatedAt = time.Now()
	m.sessions[session.ChatID] = session
	return nil
}

// Clear sessiyani o'chirish
func (m *memorySessionRepository) Clear(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, chatID)
	return nil
}
