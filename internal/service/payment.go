package service

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"time"

	"github.com/TruongDucHungSon/ecommerce-api/internal/cache"
	"github.com/TruongDucHungSon/ecommerce-api/internal/client"
	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/dto"
	"github.com/TruongDucHungSon/ecommerce-api/internal/gateway"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/repository"
)

// paymentCodeAttempts bounds collision regeneration so a pathological store
// cannot spin forever.
const paymentCodeAttempts = 5

// SettlementResult reports what a confirmation did. Applied is false for the
// idempotent no-op path; Order always carries the current persisted state.
type SettlementResult struct {
	Applied bool
	Order   *model.Order
}

type PaymentService interface {
	// CreateVNPayPayment assigns a payment attempt to the order and returns
	// the signed redirect URL for the browser.
	CreateVNPayPayment(ctx context.Context, orderID, clientIP string) (*dto.CreatePaymentResponse, error)
	// CreatePayOSPayment assigns a payment attempt and obtains a checkout
	// link from the gateway.
	CreatePayOSPayment(ctx context.Context, orderID string) (*dto.CreatePaymentResponse, error)
	// HandleVNPayReturn verifies a return-redirect query and applies it.
	HandleVNPayReturn(ctx context.Context, query url.Values) (*SettlementResult, error)
	// HandlePayOSWebhook verifies a webhook body and applies it.
	HandlePayOSWebhook(ctx context.Context, body []byte) (*SettlementResult, error)
	// ApplyConfirmation runs the order payment state machine exactly once
	// per order, no matter how often or how concurrently it is called.
	ApplyConfirmation(ctx context.Context, conf *gateway.Confirmation) (*SettlementResult, error)
}

type paymentServiceImpl struct {
	orderRepo   repository.OrderRepository
	vnpay       *gateway.VNPayAdapter
	payos       *gateway.PayOSAdapter
	payosClient client.PayOSClient
	baseURL     string
	policy      config.Settlement
	statsCache  *cache.StatsCache
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	vnpay *gateway.VNPayAdapter,
	payos *gateway.PayOSAdapter,
	payosClient client.PayOSClient,
	baseURL string,
	policy config.Settlement,
	statsCache *cache.StatsCache,
) PaymentService {
	return &paymentServiceImpl{
		orderRepo:   orderRepo,
		vnpay:       vnpay,
		payos:       payos,
		payosClient: payosClient,
		baseURL:     baseURL,
		policy:      policy,
		statsCache:  statsCache,
	}
}

func (s *paymentServiceImpl) CreateVNPayPayment(ctx context.Context, orderID, clientIP string) (*dto.CreatePaymentResponse, error) {
	order, err := s.preparePayment(ctx, orderID, model.MethodVNPay)
	if err != nil {
		return nil, err
	}

	paymentURL, err := s.vnpay.BuildPaymentURL(order, clientIP, time.Now())
	if err != nil {
		return nil, fmt.Errorf("build vnpay payment url: %w", err)
	}

	return &dto.CreatePaymentResponse{
		PaymentURL: paymentURL,
		Amount:     order.Total,
	}, nil
}

func (s *paymentServiceImpl) CreatePayOSPayment(ctx context.Context, orderID string) (*dto.CreatePaymentResponse, error) {
	order, err := s.preparePayment(ctx, orderID, model.MethodPayOS)
	if err != nil {
		return nil, err
	}

	req, err := s.payos.BuildPaymentRequest(order, s.baseURL+"/success", s.baseURL+"/fail")
	if err != nil {
		return nil, fmt.Errorf("build payos payment request: %w", err)
	}

	checkoutURL, err := s.payosClient.CreatePaymentLink(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("payos create payment link: %w", err)
	}

	return &dto.CreatePaymentResponse{
		PaymentURL: checkoutURL,
		Amount:     order.Total,
	}, nil
}

// preparePayment fixes the method and correlation code of an attempt. An
// order that already carries a code keeps it; the code is immutable for the
// life of the order.
func (s *paymentServiceImpl) preparePayment(ctx context.Context, orderID string, method model.PaymentMethod) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != model.PaymentUnpaid {
		return nil, fmt.Errorf("order %s already settled: %s", order.ID, order.PaymentStatus)
	}

	if order.PaymentCode != 0 {
		return order, nil
	}

	code, err := s.newPaymentCode(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.AssignPayment(ctx, orderID, method, code); err != nil {
		return nil, fmt.Errorf("assign payment attempt: %w", err)
	}

	order.PaymentMethod = method
	order.PaymentCode = code
	return order, nil
}

// newPaymentCode draws a correlation code and regenerates while it collides
// with any still-pending attempt.
func (s *paymentServiceImpl) newPaymentCode(ctx context.Context) (int64, error) {
	for i := 0; i < paymentCodeAttempts; i++ {
		// time-prefixed so codes sort roughly by creation, random suffix
		// against same-second attempts
		code := time.Now().Unix()*1_000_000 + rand.Int63n(1_000_000)

		pending, err := s.orderRepo.PaymentCodePending(ctx, code)
		if err != nil {
			return 0, fmt.Errorf("check payment code: %w", err)
		}
		if !pending {
			return code, nil
		}
	}
	return 0, fmt.Errorf("could not draw a free payment code after %d attempts", paymentCodeAttempts)
}

func (s *paymentServiceImpl) HandleVNPayReturn(ctx context.Context, query url.Values) (*SettlementResult, error) {
	conf, err := s.vnpay.ParseReturn(query)
	if err != nil {
		return nil, err
	}
	return s.ApplyConfirmation(ctx, conf)
}

func (s *paymentServiceImpl) HandlePayOSWebhook(ctx context.Context, body []byte) (*SettlementResult, error) {
	conf, err := s.payos.ParseWebhook(body)
	if err != nil {
		return nil, err
	}
	return s.ApplyConfirmation(ctx, conf)
}

func (s *paymentServiceImpl) ApplyConfirmation(ctx context.Context, conf *gateway.Confirmation) (*SettlementResult, error) {
	order, err := s.orderRepo.FindByID(ctx, conf.OrderID)
	if err != nil {
		return nil, err
	}

	// the signature proves who sent the values, not that they belong to
	// this order; cross-check against the stored aggregate before touching
	// anything
	if conf.Amount != order.Total {
		return nil, gateway.ErrAmountMismatch
	}
	if conf.PaymentCode != 0 && conf.PaymentCode != order.PaymentCode {
		return nil, fmt.Errorf("%w: payment code does not match order", gateway.ErrWebhookInvalid)
	}

	if order.PaymentStatus != model.PaymentUnpaid {
		return &SettlementResult{Applied: false, Order: order}, nil
	}

	settlement := repository.Settlement{
		PaymentStatus: model.PaymentFailed,
		Status:        order.Status,
	}
	if conf.Success {
		settlement = repository.Settlement{
			PaymentStatus: model.PaymentPaid,
			Status:        model.OrderProcessing,
			TransactionID: conf.TransactionID,
		}
	} else if s.policy.FailureCancelsOrder {
		settlement.Status = model.OrderCancelled
	}

	applied, err := s.orderRepo.Settle(ctx, order.ID, settlement)
	if err != nil {
		return nil, fmt.Errorf("settle order %s: %w", order.ID, err)
	}

	// re-read either way: on the losing side of a race the first read is
	// stale, and on the winning side we return persisted state, not our own
	// intent
	fresh, err := s.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if applied {
		s.statsCache.Invalidate(ctx)
	}

	return &SettlementResult{Applied: applied, Order: fresh}, nil
}
