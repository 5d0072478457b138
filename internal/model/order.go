package model

import "time"

type OrderStatus string

const (
	OrderPending    OrderStatus = "Pending"
	OrderProcessing OrderStatus = "Processing"
	OrderShipping   OrderStatus = "Shipping"
	OrderCompleted  OrderStatus = "Completed"
	OrderCancelled  OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "Unpaid"
	PaymentPaid   PaymentStatus = "Paid"
	PaymentFailed PaymentStatus = "Failed"
)

type PaymentMethod string

const (
	MethodCOD   PaymentMethod = "COD"
	MethodVNPay PaymentMethod = "VNPay"
	MethodPayOS PaymentMethod = "PayOS"
)

type Order struct {
	ID     string `gorm:"primaryKey;size:36;not null"` // uuid, assigned at creation
	UserID string `gorm:"size:36;index;not null"`

	// shipping contact
	Name     string `gorm:"size:128;not null"`
	Address  string `gorm:"size:255;not null"`
	Province string `gorm:"size:64;not null"`
	District string `gorm:"size:64;not null"`
	Commune  string `gorm:"size:64;not null"`
	Note     string `gorm:"size:255"`
	Phone    string `gorm:"size:20;not null"`

	CartItems []OrderItem `gorm:"foreignKey:OrderID"`

	// Total is in minor currency units and immutable after creation; the
	// signed payment amount must equal it.
	Total int64 `gorm:"not null"`

	Status        OrderStatus   `gorm:"size:16;index;not null;default:Pending"`
	PaymentStatus PaymentStatus `gorm:"size:16;index;not null;default:Unpaid"`
	PaymentMethod PaymentMethod `gorm:"size:16;not null;default:COD"`

	// PaymentCode correlates a payment attempt with the gateway. Set once
	// per attempt, immutable afterwards, unique among pending attempts.
	PaymentCode int64 `gorm:"index"`
	// TransactionID is the gateway settlement reference, set only on a
	// confirmed payment.
	TransactionID string `gorm:"size:64"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → order.id
	OrderID string `gorm:"size:36;index;not null"`
	// FK → product.id
	ProductID string `gorm:"size:36;index;not null"`
	Quantity  int32  `gorm:"not null"`
	Size      string `gorm:"size:8;not null"`

	CreatedAt time.Time
}
