package dto

import (
	"github.com/shopspring/decimal"

	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
)

type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
	Size      string `json:"size"`
}

type CreateOrderRequest struct {
	UserID        string     `json:"userId"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	Province      string     `json:"province"`
	District      string     `json:"district"`
	Commune       string     `json:"commune"`
	Note          string     `json:"note"`
	Phone         string     `json:"phone"`
	CartItems     []CartItem `json:"cartItems"`
	PaymentMethod string     `json:"paymentMethod"`
}

type UpdateStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CreatePaymentRequest struct {
	OrderID string `json:"orderId"`
}

type CreatePaymentResponse struct {
	PaymentURL string `json:"paymentUrl"`
	Amount     int64  `json:"amount"`
}

// WebhookAck is the fixed acknowledgement PayOS expects; anything else makes
// the gateway keep retrying.
type WebhookAck struct {
	Success bool `json:"success"`
}

type CreateProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Sizes       string          `json:"sizes"`
}

type RevenueResponse struct {
	TotalRevenue int64 `json:"totalRevenue"`
}

type SoldProductsResponse struct {
	TotalSoldProducts int64 `json:"totalSoldProducts"`
}

type MonthlySold struct {
	Month string `json:"month"` // yyyy-MM
	Total int64  `json:"total"`
}

type ProductSold struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	TotalQuantitySold int64  `json:"totalQuantitySold"`
}
