package service

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TruongDucHungSon/ecommerce-api/internal/client"
	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/gateway"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
	"github.com/TruongDucHungSon/ecommerce-api/internal/repository"
)

// fakeOrderRepo is an in-memory OrderRepository whose Settle is a real
// compare-and-swap under a mutex, which makes concurrent delivery tests
// deterministic.
type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*model.Order
	// forcePendingCodes makes the next N PaymentCodePending calls report a
	// collision
	forcePendingCodes int
	codeChecks        int
}

func newFakeOrderRepo(orders ...*model.Order) *fakeOrderRepo {
	r := &fakeOrderRepo{orders: make(map[string]*model.Order)}
	for _, o := range orders {
		cp := *o
		r.orders[o.ID] = &cp
	}
	return r
}

func (r *fakeOrderRepo) Create(_ context.Context, order *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *order
	r.orders[order.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, orderID string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) FindAll(context.Context) ([]*model.Order, error)  { return nil, nil }
func (r *fakeOrderRepo) FindPaid(context.Context) ([]*model.Order, error) { return nil, nil }
func (r *fakeOrderRepo) FindByStatus(context.Context, model.OrderStatus) ([]*model.Order, error) {
	return nil, nil
}
func (r *fakeOrderRepo) Delete(context.Context, string) error { return nil }

func (r *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	order.Status = status
	cp := *order
	return &cp, nil
}

func (r *fakeOrderRepo) AssignPayment(_ context.Context, orderID string, method model.PaymentMethod, code int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.PaymentCode != 0 {
		return model.ErrOrderNotFound
	}
	order.PaymentMethod = method
	order.PaymentCode = code
	return nil
}

func (r *fakeOrderRepo) PaymentCodePending(_ context.Context, code int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codeChecks++
	if r.forcePendingCodes > 0 {
		r.forcePendingCodes--
		return true, nil
	}
	for _, order := range r.orders {
		if order.PaymentCode == code && order.PaymentStatus == model.PaymentUnpaid {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) Settle(_ context.Context, orderID string, s repository.Settlement) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.PaymentStatus != model.PaymentUnpaid {
		return false, nil
	}
	order.PaymentStatus = s.PaymentStatus
	order.Status = s.Status
	order.TransactionID = s.TransactionID
	return true, nil
}

type fakePayOSClient struct {
	lastReq *gateway.CreatePaymentRequest
}

func (c *fakePayOSClient) CreatePaymentLink(_ context.Context, req *gateway.CreatePaymentRequest) (string, error) {
	c.lastReq = req
	return "https://pay.payos.vn/web/" + uuid.NewString(), nil
}

func testPaymentService(repo repository.OrderRepository, policy config.Settlement) (PaymentService, *fakePayOSClient) {
	vnpay := gateway.NewVNPayAdapter(config.VNPay{
		TmnCode:    "DEMOV210",
		HashSecret: "test-hash-secret",
		URL:        "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example.com/order/vnpay/return",
	})
	payos := gateway.NewPayOSAdapter(config.PayOS{ChecksumKey: "checksum-key"})
	payosClient := &fakePayOSClient{}

	svc := NewPaymentService(repo, vnpay, payos, payosClient,
		"https://shop.example.com", policy, nil)
	return svc, payosClient
}

func unpaidOrder(total int64) *model.Order {
	return &model.Order{
		ID:            uuid.NewString(),
		UserID:        uuid.NewString(),
		Name:          "Nguyen Van A",
		Total:         total,
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentUnpaid,
	}
}

func successConfirmation(order *model.Order) *gateway.Confirmation {
	return &gateway.Confirmation{
		OrderID:       order.ID,
		Success:       true,
		TransactionID: "14422574",
		Amount:        order.Total,
	}
}

func TestApplyConfirmationSuccess(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})

	result, err := svc.ApplyConfirmation(context.Background(), successConfirmation(order))
	require.NoError(t, err)

	assert.True(t, result.Applied)
	assert.Equal(t, model.PaymentPaid, result.Order.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, result.Order.Status)
	assert.Equal(t, "14422574", result.Order.TransactionID)
}

func TestApplyConfirmationIdempotent(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})
	ctx := context.Background()

	first, err := svc.ApplyConfirmation(ctx, successConfirmation(order))
	require.NoError(t, err)
	require.True(t, first.Applied)

	// same confirmation again: no-op, identical final state
	second, err := svc.ApplyConfirmation(ctx, successConfirmation(order))
	require.NoError(t, err)

	assert.False(t, second.Applied)
	assert.Equal(t, first.Order.PaymentStatus, second.Order.PaymentStatus)
	assert.Equal(t, first.Order.Status, second.Order.Status)
	assert.Equal(t, first.Order.TransactionID, second.Order.TransactionID)
}

func TestApplyConfirmationFailurePolicy(t *testing.T) {
	tests := []struct {
		name       string
		policy     config.Settlement
		wantStatus model.OrderStatus
	}{
		{"failure flags only", config.Settlement{FailureCancelsOrder: false}, model.OrderPending},
		{"failure cancels", config.Settlement{FailureCancelsOrder: true}, model.OrderCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := unpaidOrder(500000)
			repo := newFakeOrderRepo(order)
			svc, _ := testPaymentService(repo, tt.policy)

			result, err := svc.ApplyConfirmation(context.Background(), &gateway.Confirmation{
				OrderID: order.ID,
				Success: false,
				Amount:  order.Total,
			})
			require.NoError(t, err)

			assert.True(t, result.Applied)
			assert.Equal(t, model.PaymentFailed, result.Order.PaymentStatus)
			assert.Equal(t, tt.wantStatus, result.Order.Status)
			assert.Empty(t, result.Order.TransactionID)
		})
	}
}

func TestApplyConfirmationOrderNotFound(t *testing.T) {
	svc, _ := testPaymentService(newFakeOrderRepo(), config.Settlement{})

	_, err := svc.ApplyConfirmation(context.Background(), &gateway.Confirmation{
		OrderID: uuid.NewString(),
		Success: true,
		Amount:  1,
	})
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestApplyConfirmationAmountMismatch(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})

	conf := successConfirmation(order)
	conf.Amount = 1

	_, err := svc.ApplyConfirmation(context.Background(), conf)
	assert.ErrorIs(t, err, gateway.ErrAmountMismatch)

	// rejected confirmations leave the order untouched
	fresh, err := repo.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentUnpaid, fresh.PaymentStatus)
}

func TestApplyConfirmationPaymentCodeMismatch(t *testing.T) {
	order := unpaidOrder(500000)
	order.PaymentCode = 123456789
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})

	conf := successConfirmation(order)
	conf.PaymentCode = 999999999

	_, err := svc.ApplyConfirmation(context.Background(), conf)
	assert.ErrorIs(t, err, gateway.ErrWebhookInvalid)
}

func TestApplyConfirmationConcurrentDelivery(t *testing.T) {
	// duplicate webhook racing the return-redirect, one success and one
	// failure: exactly one wins the CAS and the final state is never a mix
	for i := 0; i < 50; i++ {
		order := unpaidOrder(500000)
		repo := newFakeOrderRepo(order)
		svc, _ := testPaymentService(repo, config.Settlement{FailureCancelsOrder: true})
		ctx := context.Background()

		success := successConfirmation(order)
		failure := &gateway.Confirmation{OrderID: order.ID, Success: false, Amount: order.Total}

		var wg sync.WaitGroup
		results := make([]*SettlementResult, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], _ = svc.ApplyConfirmation(ctx, success)
		}()
		go func() {
			defer wg.Done()
			results[1], _ = svc.ApplyConfirmation(ctx, failure)
		}()
		wg.Wait()

		require.NotNil(t, results[0])
		require.NotNil(t, results[1])
		assert.NotEqual(t, results[0].Applied, results[1].Applied, "exactly one confirmation applies")

		final, err := repo.FindByID(ctx, order.ID)
		require.NoError(t, err)
		switch final.PaymentStatus {
		case model.PaymentPaid:
			assert.Equal(t, model.OrderProcessing, final.Status)
			assert.Equal(t, "14422574", final.TransactionID)
		case model.PaymentFailed:
			assert.Equal(t, model.OrderCancelled, final.Status)
			assert.Empty(t, final.TransactionID)
		default:
			t.Fatalf("order left unsettled: %s", final.PaymentStatus)
		}
	}
}

func TestCreateVNPayPaymentAssignsAttempt(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})
	ctx := context.Background()

	resp, err := svc.CreateVNPayPayment(ctx, order.ID, "203.0.113.7")
	require.NoError(t, err)

	assert.Equal(t, int64(500000), resp.Amount)

	u, err := url.Parse(resp.PaymentURL)
	require.NoError(t, err)
	assert.Equal(t, order.ID, u.Query().Get("vnp_TxnRef"))
	assert.Equal(t, "50000000", u.Query().Get("vnp_Amount"))

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MethodVNPay, stored.PaymentMethod)
	assert.NotZero(t, stored.PaymentCode)

	// a second attempt keeps the original code
	_, err = svc.CreateVNPayPayment(ctx, order.ID, "203.0.113.7")
	require.NoError(t, err)
	again, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.PaymentCode, again.PaymentCode)
}

func TestCreatePaymentRejectsSettledOrder(t *testing.T) {
	order := unpaidOrder(500000)
	order.PaymentStatus = model.PaymentPaid
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})

	_, err := svc.CreateVNPayPayment(context.Background(), order.ID, "203.0.113.7")
	assert.Error(t, err)
}

func TestPaymentCodeCollisionRegenerates(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	repo.forcePendingCodes = 2
	svc, client := testPaymentService(repo, config.Settlement{})

	_, err := svc.CreatePayOSPayment(context.Background(), order.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, repo.codeChecks, "two collisions then a free code")
	require.NotNil(t, client.lastReq)
	assert.NotZero(t, client.lastReq.OrderCode)
}

func TestHandlePayOSWebhookEndToEnd(t *testing.T) {
	order := unpaidOrder(500000)
	repo := newFakeOrderRepo(order)
	svc, _ := testPaymentService(repo, config.Settlement{})
	ctx := context.Background()

	// assign the attempt so the webhook's orderCode has something to match
	_, err := svc.CreatePayOSPayment(ctx, order.ID)
	require.NoError(t, err)
	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	payos := gateway.NewPayOSAdapter(config.PayOS{ChecksumKey: "checksum-key"})
	data := gateway.WebhookData{
		OrderCode:   stored.PaymentCode,
		Amount:      500000,
		Description: "ORDER#" + order.ID,
		Reference:   "FT262400123456",
	}
	body, err := json.Marshal(map[string]interface{}{
		"code":      "00",
		"desc":      "success",
		"data":      data,
		"signature": payos.SignWebhookData(data),
	})
	require.NoError(t, err)

	result, err := svc.HandlePayOSWebhook(ctx, body)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.PaymentPaid, result.Order.PaymentStatus)
	assert.Equal(t, "FT262400123456", result.Order.TransactionID)

	// gateway retry: same body, no further state change
	replay, err := svc.HandlePayOSWebhook(ctx, body)
	require.NoError(t, err)
	assert.False(t, replay.Applied)
	assert.Equal(t, model.PaymentPaid, replay.Order.PaymentStatus)
}

// TestVNPayReturnEndToEnd drives the whole redirect flow against a real
// sqlite-backed repository: checkout, signed redirect URL, gateway return
// with response code "00", settlement, then an idempotent replay.
func TestVNPayReturnEndToEnd(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	repo := repository.NewOrderRepository(db)
	svc, _ := testPaymentService(repo, config.Settlement{})
	ctx := context.Background()

	order := unpaidOrder(500000)
	require.NoError(t, repo.Create(ctx, order))

	resp, err := svc.CreateVNPayPayment(ctx, order.ID, "203.0.113.7")
	require.NoError(t, err)

	u, err := url.Parse(resp.PaymentURL)
	require.NoError(t, err)

	// simulate the gateway: echo the request fields back with a result code
	// and a settlement reference, signed with the shared secret
	fields := map[string]string{}
	for k := range u.Query() {
		if k != "vnp_SecureHash" {
			fields[k] = u.Query().Get(k)
		}
	}
	fields["vnp_ResponseCode"] = "00"
	fields["vnp_TransactionNo"] = "14422574"
	digest := gateway.Sign("test-hash-secret", gateway.Canonicalize(fields))

	ret := url.Values{}
	for k, v := range fields {
		ret.Set(k, v)
	}
	ret.Set("vnp_SecureHash", digest)

	result, err := svc.HandleVNPayReturn(ctx, ret)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, model.PaymentPaid, result.Order.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, result.Order.Status)
	assert.Equal(t, "14422574", result.Order.TransactionID)

	replay, err := svc.HandleVNPayReturn(ctx, ret)
	require.NoError(t, err)
	assert.False(t, replay.Applied)
	assert.Equal(t, model.PaymentPaid, replay.Order.PaymentStatus)
	assert.Equal(t, model.OrderProcessing, replay.Order.Status)
	assert.Equal(t, "14422574", replay.Order.TransactionID)
}
