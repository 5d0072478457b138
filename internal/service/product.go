package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/repository"
)

type ProductService interface {
	Create(ctx context.Context, req *dto.CreateProductRequest) (*model.Product, error)
	GetAll(ctx context.Context) ([]*model.Product, error)
	GetByID(ctx context.Context, productID string) (*model.Product, error)
	Delete(ctx context.Context, productID string) error
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{productRepo: productRepo}
}

func (s *productServiceImpl) Create(ctx context.Context, req *dto.CreateProductRequest) (*model.Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("product price must not be negative")
	}

	product := &model.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Sizes:       req.Sizes,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("store product: %w", err)
	}

	return product, nil
}

func (s *productServiceImpl) GetAll(ctx context.Context) ([]*model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *productServiceImpl) GetByID(ctx context.Context, productID string) (*model.Product, error) {
	return s.productRepo.FindByID(ctx, productID)
}

func (s *productServiceImpl) Delete(ctx context.Context, productID string) error {
	return s.productRepo.Delete(ctx, productID)
}
