package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/service"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	product, err := h.productService.Create(ctx, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) GetAll(c echo.Context) error {
	products, err := h.productService.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetByID(c echo.Context) error {
	product, err := h.productService.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrProductNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	err := h.productService.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrProductNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
