package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.Create(ctx, &req)
	if err != nil {
		if errors.Is(err, model.ErrProductNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown product in cart")
		}
		return err
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetAll(c echo.Context) error {
	orders, err := h.orderService.GetAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetByID(c echo.Context) error {
	order, err := h.orderService.GetByID(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) FilterByStatus(c echo.Context) error {
	orders, err := h.orderService.FilterByStatus(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"data": orders})
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, err := h.orderService.UpdateStatus(ctx, req.ID, model.OrderStatus(req.Status))
	if errors.Is(err, model.ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status": "Update order status successfully",
		"data":   order,
	})
}

func (h *OrderHandler) Delete(c echo.Context) error {
	err := h.orderService.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, model.ErrOrderNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHandler) Revenue(c echo.Context) error {
	resp, err := h.orderService.Revenue(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) SoldProducts(c echo.Context) error {
	resp, err := h.orderService.SoldProducts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) SoldProductsByMonth(c echo.Context) error {
	resp, err := h.orderService.SoldProductsByMonth(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) SoldProductsByProduct(c echo.Context) error {
	resp, err := h.orderService.SoldProductsByProduct(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"productSales": resp})
}
