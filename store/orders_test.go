package store

import (
	"context"
	"testing"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderStatusHistory{}))
	return db
}

func TestLoadNotFound(t *testing.T) {
	s := NewOrders(testDB(t))
	_, err := s.Load(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateAndLoad(t *testing.T) {
	s := NewOrders(testDB(t))
	ctx := context.Background()

	order := &models.Order{
		ClientID:        1,
		MerchantID:      2,
		Status:          models.StatusPending,
		DeliveryAddress: "Calle Falsa 123",
		Items: []models.OrderItem{
			{Name: "Empanadas x12", Quantity: 1, Price: 18.0},
		},
		Total: 18.0,
	}
	require.NoError(t, s.Create(ctx, order))

	got, err := s.Load(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, 1, got.Version)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Empanadas x12", got.Items[0].Name)
}

func TestSaveTransitionBumpsVersionAndWritesHistory(t *testing.T) {
	db := testDB(t)
	s := NewOrders(db)
	ctx := context.Background()

	order := &models.Order{ClientID: 1, MerchantID: 2, Status: models.StatusPending, DeliveryAddress: "x"}
	require.NoError(t, s.Create(ctx, order))

	now := time.Now()
	courier := uint(7)
	order.Status = models.StatusAccepted
	order.CourierID = &courier
	order.AcceptedAt = &now
	require.NoError(t, s.SaveTransition(ctx, order, models.StatusPending, 2, "accepted"))
	assert.Equal(t, 2, order.Version)

	got, err := s.Load(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	assert.Equal(t, 2, got.Version)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, courier, *got.CourierID)
	require.NotNil(t, got.AcceptedAt)

	var history []models.OrderStatusHistory
	db.Where("order_id = ?", order.ID).Find(&history)
	require.Len(t, history, 1)
	assert.Equal(t, models.StatusPending, history[0].FromStatus)
	assert.Equal(t, models.StatusAccepted, history[0].ToStatus)
	assert.Equal(t, uint(2), history[0].ChangedBy)
}

// Two writers loading the same version: the second commit must fail and
// leave no history row behind.
func TestSaveTransitionDetectsStaleWrite(t *testing.T) {
	db := testDB(t)
	s := NewOrders(db)
	ctx := context.Background()

	order := &models.Order{ClientID: 1, MerchantID: 2, Status: models.StatusPending, DeliveryAddress: "x"}
	require.NoError(t, s.Create(ctx, order))

	first, err := s.Load(ctx, order.ID)
	require.NoError(t, err)
	second, err := s.Load(ctx, order.ID)
	require.NoError(t, err)

	first.Status = models.StatusAccepted
	require.NoError(t, s.SaveTransition(ctx, first, models.StatusPending, 2, "accept"))

	second.Status = models.StatusCancelled
	err = s.SaveTransition(ctx, second, models.StatusPending, 1, "cancel")
	assert.ErrorIs(t, err, ErrStaleWrite)

	got, err := s.Load(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	var count int64
	db.Model(&models.OrderStatusHistory{}).Where("order_id = ?", order.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestLockSerializesPerOrder(t *testing.T) {
	s := NewOrders(testDB(t))

	unlock := s.Lock(1)
	acquired := make(chan struct{})
	go func() {
		u := s.Lock(1)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired")
	}

	// Different order ids do not contend
	u2 := s.Lock(2)
	u2()
}
