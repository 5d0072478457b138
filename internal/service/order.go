package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TruongDucHungSon/ecommerce-api/internal/cache"
	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/repository"
)

type OrderService interface {
	Create(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error)
	GetAll(ctx context.Context) ([]*model.Order, error)
	GetByID(ctx context.Context, orderID string) (*model.Order, error)
	FilterByStatus(ctx context.Context, status string) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error)
	Delete(ctx context.Context, orderID string) error

	Revenue(ctx context.Context) (*dto.RevenueResponse, error)
	SoldProducts(ctx context.Context) (*dto.SoldProductsResponse, error)
	SoldProductsByMonth(ctx context.Context) ([]dto.MonthlySold, error)
	SoldProductsByProduct(ctx context.Context) ([]dto.ProductSold, error)
}

type orderServiceImpl struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	statsCache  *cache.StatsCache
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	statsCache *cache.StatsCache,
) OrderService {
	return &orderServiceImpl{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		statsCache:  statsCache,
	}
}

// Create checks out a cart into an order. The total is computed server-side
// from current product prices; it is immutable from here on and the signed
// payment amount has to match it.
func (s *orderServiceImpl) Create(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, error) {
	if len(req.CartItems) == 0 {
		return nil, fmt.Errorf("order needs at least one item")
	}

	productIDs := make([]string, len(req.CartItems))
	for i, item := range req.CartItems {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("item quantity must be positive")
		}
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	priceByID := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		priceByID[p.ID] = p.Price
	}

	total := decimal.Zero
	items := make([]model.OrderItem, len(req.CartItems))
	for i, item := range req.CartItems {
		price, ok := priceByID[item.ProductID]
		if !ok {
			return nil, model.ErrProductNotFound
		}
		total = total.Add(price.Mul(decimal.NewFromInt32(item.Quantity)))

		items[i] = model.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
		}
	}

	method := model.PaymentMethod(req.PaymentMethod)
	switch method {
	case model.MethodCOD, model.MethodVNPay, model.MethodPayOS:
	case "":
		method = model.MethodCOD
	default:
		return nil, fmt.Errorf("unknown payment method %q", req.PaymentMethod)
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Name:          req.Name,
		Address:       req.Address,
		Province:      req.Province,
		District:      req.District,
		Commune:       req.Commune,
		Note:          req.Note,
		Phone:         req.Phone,
		CartItems:     items,
		Total:         total.IntPart(),
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentUnpaid,
		PaymentMethod: method,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("store order: %w", err)
	}

	return order, nil
}

func (s *orderServiceImpl) GetAll(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.FindAll(ctx)
}

func (s *orderServiceImpl) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

func (s *orderServiceImpl) FilterByStatus(ctx context.Context, status string) ([]*model.Order, error) {
	if status == "" || status == "All" {
		return s.orderRepo.FindAll(ctx)
	}
	return s.orderRepo.FindByStatus(ctx, model.OrderStatus(status))
}

func (s *orderServiceImpl) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	switch status {
	case model.OrderPending, model.OrderProcessing, model.OrderShipping, model.OrderCompleted, model.OrderCancelled:
	default:
		return nil, fmt.Errorf("unknown order status %q", status)
	}

	return s.orderRepo.UpdateStatus(ctx, orderID, status)
}

func (s *orderServiceImpl) Delete(ctx context.Context, orderID string) error {
	return s.orderRepo.Delete(ctx, orderID)
}

func (s *orderServiceImpl) Revenue(ctx context.Context) (*dto.RevenueResponse, error) {
	var cached dto.RevenueResponse
	if s.statsCache.Get(ctx, cache.KeyRevenue, &cached) {
		return &cached, nil
	}

	orders, err := s.orderRepo.FindPaid(ctx)
	if err != nil {
		return nil, err
	}

	var revenue int64
	for _, order := range orders {
		revenue += order.Total
	}

	resp := &dto.RevenueResponse{TotalRevenue: revenue}
	s.statsCache.Set(ctx, cache.KeyRevenue, resp)
	return resp, nil
}

func (s *orderServiceImpl) SoldProducts(ctx context.Context) (*dto.SoldProductsResponse, error) {
	var cached dto.SoldProductsResponse
	if s.statsCache.Get(ctx, cache.KeySoldProducts, &cached) {
		return &cached, nil
	}

	orders, err := s.orderRepo.FindPaid(ctx)
	if err != nil {
		return nil, err
	}

	var sold int64
	for _, order := range orders {
		for _, item := range order.CartItems {
			sold += int64(item.Quantity)
		}
	}

	resp := &dto.SoldProductsResponse{TotalSoldProducts: sold}
	s.statsCache.Set(ctx, cache.KeySoldProducts, resp)
	return resp, nil
}

func (s *orderServiceImpl) SoldProductsByMonth(ctx context.Context) ([]dto.MonthlySold, error) {
	var cached []dto.MonthlySold
	if s.statsCache.Get(ctx, cache.KeySoldByMonth, &cached) {
		return cached, nil
	}

	orders, err := s.orderRepo.FindPaid(ctx)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]int64)
	for _, order := range orders {
		month := order.CreatedAt.Format("2006-01")
		for _, item := range order.CartItems {
			byMonth[month] += int64(item.Quantity)
		}
	}

	result := make([]dto.MonthlySold, 0, len(byMonth))
	for month, total := range byMonth {
		result = append(result, dto.MonthlySold{Month: month, Total: total})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Month > result[j].Month })

	s.statsCache.Set(ctx, cache.KeySoldByMonth, result)
	return result, nil
}

func (s *orderServiceImpl) SoldProductsByProduct(ctx context.Context) ([]dto.ProductSold, error) {
	var cached []dto.ProductSold
	if s.statsCache.Get(ctx, cache.KeySoldByProduct, &cached) {
		return cached, nil
	}

	orders, err := s.orderRepo.FindPaid(ctx)
	if err != nil {
		return nil, err
	}

	byProduct := make(map[string]int64)
	for _, order := range orders {
		for _, item := range order.CartItems {
			byProduct[item.ProductID] += int64(item.Quantity)
		}
	}

	productIDs := make([]string, 0, len(byProduct))
	for id := range byProduct {
		productIDs = append(productIDs, id)
	}
	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	nameByID := make(map[string]string, len(products))
	for _, p := range products {
		nameByID[p.ID] = p.Name
	}

	result := make([]dto.ProductSold, 0, len(byProduct))
	for id, total := range byProduct {
		result = append(result, dto.ProductSold{
			ProductID:         id,
			Name:              nameByID[id],
			TotalQuantitySold: total,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TotalQuantitySold > result[j].TotalQuantitySold })

	s.statsCache.Set(ctx, cache.KeySoldByProduct, result)
	return result, nil
}
