package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TruongDucHungSon/ecommerce-api/internal/client"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))
	return db
}

func newTestOrder(total int64) *model.Order {
	return &model.Order{
		ID:       uuid.NewString(),
		UserID:   uuid.NewString(),
		Name:     "Nguyen Van A",
		Address:  "12 Ly Thuong Kiet",
		Province: "Ha Noi",
		District: "Hoan Kiem",
		Commune:  "Trang Tien",
		Phone:    "0901234567",
		CartItems: []model.OrderItem{
			{ProductID: uuid.NewString(), Quantity: 2, Size: "M"},
		},
		Total:         total,
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentUnpaid,
		PaymentMethod: model.MethodVNPay,
	}
}

func TestOrderCreateAndFind(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newTestOrder(500000)
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, int64(500000), got.Total)
	assert.Len(t, got.CartItems, 1)
	assert.Equal(t, model.PaymentUnpaid, got.PaymentStatus)
}

func TestOrderFindByIDNotFound(t *testing.T) {
	repo := NewOrderRepository(testDB(t))

	_, err := repo.FindByID(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestSettleAppliesOnce(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newTestOrder(500000)
	require.NoError(t, repo.Create(ctx, order))

	settlement := Settlement{
		PaymentStatus: model.PaymentPaid,
		Status:        model.OrderProcessing,
		TransactionID: "14422574",
	}

	applied, err := repo.Settle(ctx, order.ID, settlement)
	require.NoError(t, err)
	assert.True(t, applied)

	// the conditional update already fired; a replay must not win again
	applied, err = repo.Settle(ctx, order.ID, Settlement{
		PaymentStatus: model.PaymentFailed,
		Status:        model.OrderCancelled,
	})
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, got.Status)
	assert.Equal(t, "14422574", got.TransactionID)
}

func TestSettleUnknownOrder(t *testing.T) {
	repo := NewOrderRepository(testDB(t))

	applied, err := repo.Settle(context.Background(), uuid.NewString(), Settlement{
		PaymentStatus: model.PaymentPaid,
		Status:        model.OrderProcessing,
	})
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestAssignPaymentIsOneShot(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newTestOrder(500000)
	order.PaymentMethod = model.MethodCOD
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.AssignPayment(ctx, order.ID, model.MethodPayOS, 123456789))

	// the code is immutable for the life of the order
	err := repo.AssignPayment(ctx, order.ID, model.MethodPayOS, 987654321)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	got, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), got.PaymentCode)
	assert.Equal(t, model.MethodPayOS, got.PaymentMethod)
}

func TestPaymentCodePending(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newTestOrder(500000)
	order.PaymentCode = 555000111
	require.NoError(t, repo.Create(ctx, order))

	pending, err := repo.PaymentCodePending(ctx, 555000111)
	require.NoError(t, err)
	assert.True(t, pending)

	pending, err = repo.PaymentCodePending(ctx, 999999999)
	require.NoError(t, err)
	assert.False(t, pending)

	// settled attempts release their code
	_, err = repo.Settle(ctx, order.ID, Settlement{
		PaymentStatus: model.PaymentPaid,
		Status:        model.OrderProcessing,
	})
	require.NoError(t, err)

	pending, err = repo.PaymentCodePending(ctx, 555000111)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestFindPaidOnlyReturnsPaid(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	paid := newTestOrder(300000)
	unpaid := newTestOrder(400000)
	require.NoError(t, repo.Create(ctx, paid))
	require.NoError(t, repo.Create(ctx, unpaid))

	_, err := repo.Settle(ctx, paid.ID, Settlement{
		PaymentStatus: model.PaymentPaid,
		Status:        model.OrderProcessing,
	})
	require.NoError(t, err)

	got, err := repo.FindPaid(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, paid.ID, got[0].ID)
	assert.Len(t, got[0].CartItems, 1)
}

func TestUpdateStatus(t *testing.T) {
	repo := NewOrderRepository(testDB(t))
	ctx := context.Background()

	order := newTestOrder(500000)
	require.NoError(t, repo.Create(ctx, order))

	got, err := repo.UpdateStatus(ctx, order.ID, model.OrderShipping)
	require.NoError(t, err)
	assert.Equal(t, model.OrderShipping, got.Status)

	_, err = repo.UpdateStatus(ctx, uuid.NewString(), model.OrderShipping)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestDeleteRemovesOrderAndItems(t *testing.T) {
	db := testDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := newTestOrder(500000)
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err := repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, model.ErrOrderNotFound)

	var itemCount int64
	require.NoError(t, db.Model(&model.OrderItem{}).Where("order_id = ?", order.ID).Count(&itemCount).Error)
	assert.Zero(t, itemCount)

	assert.ErrorIs(t, repo.Delete(ctx, order.ID), model.ErrOrderNotFound)
}
