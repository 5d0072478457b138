package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/gateway"
)

// ErrGatewayUnavailable covers network failures and timeouts talking to the
// gateway while building a payment link. Nothing has been mutated when it is
// returned, so the client side may retry.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

const payosAPIBase = "https://api-merchant.payos.vn"

type PayOSClient interface {
	// CreatePaymentLink submits a signed create-payment request and returns
	// the checkout URL the buyer is sent to.
	CreatePaymentLink(ctx context.Context, req *gateway.CreatePaymentRequest) (string, error)
}

type payosClientImpl struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	apiKey     string
}

type payosCreateResult struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		CheckoutURL string `json:"checkoutUrl"`
	} `json:"data"`
}

func NewPayOSClient(cfg config.PayOS) PayOSClient {
	return &payosClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  payosAPIBase,
		clientID: cfg.ClientID,
		apiKey:   cfg.APIKey,
	}
}

func (c *payosClientImpl) CreatePaymentLink(ctx context.Context, payload *gateway.CreatePaymentRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal req payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v2/payment-requests",
		bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("payos error %d: %s", resp.StatusCode, string(b))
	}

	var result payosCreateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode payos response: %w", err)
	}
	if result.Data.CheckoutURL == "" {
		return "", fmt.Errorf("payos create payment rejected: %s %s", result.Code, result.Desc)
	}

	return result.Data.CheckoutURL, nil
}
