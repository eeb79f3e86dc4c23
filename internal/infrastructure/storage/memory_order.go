package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/suvtekin/auto-bot/internal/domain/entity"
	"github.com/suvtekin/auto-bot/internal/domain/repository"
)

type memoryOrderRepository struct {
	mu           sync.RWMutex
	orders       map[int64]entity.Order
	sellRequests map[int64]entity.SellRequest
	lastID       int64
}

// NewMemoryOrderRepository in-memory buyurtmalar repository yaratish
func NewMemoryOrderRepository() repository.OrderRepository {
	return &memoryOrderRepository{
		orders:       make(map[int64]entity.Order),
		sellRequests: make(map[int64]entity.SellRequest),
	}
}

// CreateOrder buyurtmani saqlash
func (m *memoryOrderRepository) CreateOrder(ctx context.Context, order *entity.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	order.ID = m.lastID
	if order.Status == "" {
		order.Status = entity.StatusNew
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.ID] = *order
	return nil
}

// CreateSellRequest sotish arizasini saqlash
func (m *memoryOrderRepository) CreateSellRequest(ctx context.Context, req *entity.SellRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastID++
	req.ID = m.lastID
	if req.Status == "" {
		req.Status = entity.StatusNew
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now()
	}
	m.sellRequests[req.ID] = *req
	return nil
}

// UpdateOrderStatus buyurtma holatini o'zgartirish
func (m *memoryOrderRepository) UpdateOrderStatus(ctx context.Context, id int64, status entity.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return fmt.Errorf("order %d: %w", id, entity.ErrNotFound)
	}
	order.Status = status
	m.orders[id] = order
	return nil
}

// ListOrders holat bo'yicha buyurtmalar (bo'sh holat - hammasi), eng yangisi birinchi
func (m *memoryOrderRepository) ListOrders(ctx context.Context, status entity.RequestStatus, limit int) ([]entity.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []entity.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].ID > orders[j].ID
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// CountOrders holat bo'yicha buyurtmalar soni
func (m *memoryOrderRepository) CountOrders(ctx context.Context, status entity.RequestStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			count++
		}
	}
	return count, nil
}

// CountSellRequests holat bo'yicha arizalar soni
func (m *memoryOrderRepository) CountSellRequests(ctx context.Context, status entity.RequestStatus) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, r := range m.sellRequests {
		if status == "" || r.Status == status {
			count++
		}
	}
	return count, nil
}
