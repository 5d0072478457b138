package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
)

// Settlement is the terminal payment state a confirmation drives an order
// into. The repository applies it with a single conditional UPDATE so two
// racing confirmations can never both win.
type Settlement struct {
	PaymentStatus model.PaymentStatus
	Status        model.OrderStatus
	TransactionID string
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindAll(ctx context.Context) ([]*model.Order, error)
	FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error)
	// FindPaid returns settled-paid orders with their items, newest first.
	// The statistics service aggregates over these.
	FindPaid(ctx context.Context) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, orderID string) error

	// AssignPayment fixes the payment method and correlation code of an
	// attempt. Fails once the order already carries a code.
	AssignPayment(ctx context.Context, orderID string, method model.PaymentMethod, code int64) error
	// PaymentCodePending reports whether code is held by any order whose
	// payment is still open.
	PaymentCodePending(ctx context.Context, code int64) (bool, error)
	// Settle is the compare-and-swap on payment_status = Unpaid. It reports
	// false, without error, when the order exists but was already settled.
	Settle(ctx context.Context, orderID string, s Settlement) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{db: db}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("CartItems").
		Where("id = ?", orderID).
		First(&order).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindAll(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("CartItems").
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) FindByStatus(ctx context.Context, status model.OrderStatus) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("CartItems").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) FindPaid(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("CartItems").
		Where("payment_status = ?", model.PaymentPaid).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})

	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, model.ErrOrderNotFound
	}

	return r.FindByID(ctx, orderID)
}

func (r *orderRepoImpl) Delete(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}

		res := tx.Where("id = ?", orderID).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrOrderNotFound
		}
		return nil
	})
}

func (r *orderRepoImpl) AssignPayment(ctx context.Context, orderID string, method model.PaymentMethod, code int64) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_code = 0", orderID).
		Updates(map[string]interface{}{
			"payment_method": method,
			"payment_code":   code,
			"updated_at":     time.Now(),
		})

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepoImpl) PaymentCodePending(ctx context.Context, code int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("payment_code = ?", code).
		Where("payment_status = ?", model.PaymentUnpaid).
		Count(&count).Error

	return count > 0, err
}

func (r *orderRepoImpl) Settle(ctx context.Context, orderID string, s Settlement) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentUnpaid).
		Updates(map[string]interface{}{
			"payment_status": s.PaymentStatus,
			"status":         s.Status,
			"transaction_id": s.TransactionID,
			"updated_at":     time.Now(),
		})

	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		// either no such order or it was settled already; the caller
		// re-reads to tell the two apart
		return false, nil
	}

	return true, nil
}
