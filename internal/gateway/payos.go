package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
)

const payosSuccessCode = "00"

// orderRefPattern pulls the order reference out of the webhook description.
// The captured token must still parse as a UUID before it is used for a
// lookup; a bare substring match would let the caller smuggle anything in.
var orderRefPattern = regexp.MustCompile(`ORDER#([0-9a-fA-F-]{36})`)

// WebhookData is the closed signable field set of a PayOS webhook. The
// signature covers exactly these fields, canonicalized.
type WebhookData struct {
	OrderCode           int64  `json:"orderCode"`
	Amount              int64  `json:"amount"`
	Description         string `json:"description"`
	Reference           string `json:"reference"`
	TransactionDateTime string `json:"transactionDateTime"`
}

type webhookEnvelope struct {
	Code      string      `json:"code"`
	Desc      string      `json:"desc"`
	Data      WebhookData `json:"data"`
	Signature string      `json:"signature"`
}

// CreatePaymentRequest is the signed payload of an outbound PayOS
// create-payment-link call.
type CreatePaymentRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

// PayOSAdapter implements the webhook integration: it signs outbound
// create-payment requests and verifies the server-to-server confirmations
// PayOS delivers, sharing Canonicalize and the signature engine with the
// redirect adapter.
type PayOSAdapter struct {
	cfg config.PayOS
}

func NewPayOSAdapter(cfg config.PayOS) *PayOSAdapter {
	return &PayOSAdapter{cfg: cfg}
}

// BuildPaymentRequest assembles and signs the create-payment payload for an
// order whose payment code has already been assigned.
func (a *PayOSAdapter) BuildPaymentRequest(order *model.Order, returnURL, cancelURL string) (*CreatePaymentRequest, error) {
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	req := &CreatePaymentRequest{
		OrderCode:   order.PaymentCode,
		Amount:      order.Total,
		Description: "ORDER#" + order.ID,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
	}

	fields := map[string]string{
		"amount":      strconv.FormatInt(req.Amount, 10),
		"cancelUrl":   req.CancelURL,
		"description": req.Description,
		"orderCode":   strconv.FormatInt(req.OrderCode, 10),
		"returnUrl":   req.ReturnURL,
	}
	req.Signature = Sign(a.cfg.ChecksumKey, Canonicalize(fields))

	return req, nil
}

// ParseWebhook verifies an inbound webhook body and extracts a Confirmation.
// Unknown top-level fields are rejected, the signature must cover the data
// fields, and the order reference in the description must be a well-formed
// UUID. The caller still has to confirm orderCode and amount against the
// stored order before applying anything.
func (a *PayOSAdapter) ParseWebhook(body []byte) (*Confirmation, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()

	var env webhookEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWebhookInvalid, err)
	}
	if env.Signature == "" {
		return nil, ErrWebhookUnverified
	}

	fields := a.signableFields(env.Data)
	if !Verify(a.cfg.ChecksumKey, Canonicalize(fields), env.Signature) {
		return nil, ErrWebhookUnverified
	}

	m := orderRefPattern.FindStringSubmatch(env.Data.Description)
	if m == nil {
		return nil, fmt.Errorf("%w: no order reference in description", ErrWebhookInvalid)
	}
	orderID, err := uuid.Parse(m[1])
	if err != nil {
		return nil, fmt.Errorf("%w: bad order reference", ErrWebhookInvalid)
	}

	return &Confirmation{
		OrderID:       orderID.String(),
		Success:       env.Code == payosSuccessCode,
		TransactionID: env.Data.Reference,
		Amount:        env.Data.Amount,
		PaymentCode:   env.Data.OrderCode,
		Raw:           fields,
	}, nil
}

// SignWebhookData computes the digest PayOS would attach to data. The
// gateway simulator in tests and the webhook registration handshake both
// need it.
func (a *PayOSAdapter) SignWebhookData(data WebhookData) string {
	return Sign(a.cfg.ChecksumKey, Canonicalize(a.signableFields(data)))
}

func (a *PayOSAdapter) signableFields(data WebhookData) map[string]string {
	return map[string]string{
		"amount":              strconv.FormatInt(data.Amount, 10),
		"description":         data.Description,
		"orderCode":           strconv.FormatInt(data.OrderCode, 10),
		"reference":           data.Reference,
		"transactionDateTime": data.TransactionDateTime,
	}
}
