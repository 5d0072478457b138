package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TruongDucHungSon/ecommerce-api/internal/client"
	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/gateway"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/service"
)

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreateVNPayPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.paymentService.CreateVNPayPayment(ctx, req.OrderID, c.RealIP())
	if err != nil {
		return paymentError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) CreatePayOSPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	resp, err := h.paymentService.CreatePayOSPayment(ctx, req.OrderID)
	if err != nil {
		return paymentError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// VNPayReturn handles the browser redirect back from the gateway. The query
// carries the signed result; an idempotent replay is still a success page.
func (h *PaymentHandler) VNPayReturn(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.paymentService.HandleVNPayReturn(ctx, c.QueryParams())
	if err != nil {
		return paymentError(err)
	}

	if result.Order.PaymentStatus == model.PaymentPaid {
		return c.Redirect(http.StatusFound, "/success?orderId="+result.Order.ID)
	}
	return c.Redirect(http.StatusFound, "/fail?orderId="+result.Order.ID)
}

// PayOSWebhook handles the server-to-server confirmation. The ack body and
// status are fixed: 200 on anything processed, including the idempotent
// no-op, otherwise PayOS keeps retrying delivery.
func (h *PaymentHandler) PayOSWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	if _, err := h.paymentService.HandlePayOSWebhook(ctx, body); err != nil {
		return paymentError(err)
	}

	return c.JSON(http.StatusOK, dto.WebhookAck{Success: true})
}

// paymentError maps the settlement error taxonomy onto HTTP statuses.
// Authenticity failures stay generic; nothing about keys or digests leaks.
func paymentError(err error) error {
	switch {
	case errors.Is(err, model.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	case errors.Is(err, gateway.ErrSignatureInvalid),
		errors.Is(err, gateway.ErrWebhookUnverified),
		errors.Is(err, gateway.ErrUnknownField):
		return echo.NewHTTPError(http.StatusBadRequest, "verification failed")
	case errors.Is(err, gateway.ErrWebhookInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	case errors.Is(err, gateway.ErrAmountMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "rejected")
	case errors.Is(err, client.ErrGatewayUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	default:
		return err
	}
}
