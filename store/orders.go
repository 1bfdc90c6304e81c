package store

import (
	"context"
	"errors"
	"sync"

	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStaleWrite: the row changed since it was loaded; the caller's
	// transition raced another one and must not be retried blindly.
	ErrStaleWrite = errors.New("order modified concurrently")
)

// Orders serializes transitions per order id and commits them with a
// version check, so no two transitions on the same order can both land.
type Orders struct {
	db    *gorm.DB
	locks sync.Map // order id -> *sync.Mutex
}

func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Lock acquires the per-order mutex and returns the unlock func. Hold it
// across the load-validate-save cycle of a transition.
func (s *Orders) Lock(orderID uint) func() {
	m, _ := s.locks.LoadOrStore(orderID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Load fetches an order with its items. Reads are idempotent, so a
// transient failure is retried once; ErrNotFound is never retried.
func (s *Orders) Load(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.load(ctx, id)
	if err != nil && !errors.Is(err, ErrNotFound) {
		order, err = s.load(ctx, id)
	}
	return order, err
}

func (s *Orders) load(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create inserts a new order with its items.
func (s *Orders) Create(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

// SaveTransition commits a validated transition: the versioned row
// update and the history entry land in one transaction. A zero-row
// update means another writer got there first; nothing is retried
// because replaying a state change is exactly the race being guarded.
func (s *Orders) SaveTransition(ctx context.Context, order *models.Order, from models.OrderStatus, changedBy uint, note string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND version = ?", order.ID, order.Version).
			Updates(map[string]interface{}{
				"status":       order.Status,
				"courier_id":   order.CourierID,
				"accepted_at":  order.AcceptedAt,
				"en_route_at":  order.EnRouteAt,
				"delivered_at": order.DeliveredAt,
				"cancelled_at": order.CancelledAt,
				"version":      order.Version + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleWrite
		}
		history := models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   order.Status,
			ChangedBy:  changedBy,
			Note:       note,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return err
	}
	order.Version++
	return nil
}
