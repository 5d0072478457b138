package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TruongDucHungSon/ecommerce-api/internal/config"
	"github.com/TruongDucHungSon/ecommerce-api/internal/model"
)

// VNPay protocol constants. The field set is closed: anything outside
// vnpayReturnFields on an inbound return is rejected rather than signed over.
const (
	vnpVersion   = "2.1.0"
	vnpCommand   = "pay"
	vnpLocale    = "vn"
	vnpCurrCode  = "VND"
	vnpOrderType = "billpayment"

	vnpSuccessCode = "00"

	// second precision, gateway format yyyyMMddHHmmss
	vnpDateLayout = "20060102150405"
)

var vnpayReturnFields = map[string]bool{
	"vnp_Version":           true,
	"vnp_Command":           true,
	"vnp_TmnCode":           true,
	"vnp_Locale":            true,
	"vnp_CurrCode":          true,
	"vnp_TxnRef":            true,
	"vnp_OrderInfo":         true,
	"vnp_OrderType":         true,
	"vnp_Amount":            true,
	"vnp_ReturnUrl":         true,
	"vnp_IpAddr":            true,
	"vnp_CreateDate":        true,
	"vnp_ResponseCode":      true,
	"vnp_TransactionNo":     true,
	"vnp_TransactionStatus": true,
	"vnp_BankCode":          true,
	"vnp_BankTranNo":        true,
	"vnp_CardType":          true,
	"vnp_PayDate":           true,
}

// VNPayAdapter implements the redirect-and-return integration: it builds the
// signed payment URL the browser is sent to, and verifies the query the
// gateway redirects back with. Both directions run through Canonicalize and
// the same secret, which is the property everything else depends on.
type VNPayAdapter struct {
	cfg config.VNPay
}

func NewVNPayAdapter(cfg config.VNPay) *VNPayAdapter {
	return &VNPayAdapter{cfg: cfg}
}

// BuildPaymentURL assembles the closed outbound field set for order, signs
// it and returns the full redirect URL. The query string is the canonical
// byte string itself with the signature appended, so what the gateway
// verifies is byte-identical to what was signed.
func (a *VNPayAdapter) BuildPaymentURL(order *model.Order, clientIP string, now time.Time) (string, error) {
	if order == nil {
		return "", model.ErrOrderNotFound
	}

	// amount on the wire is in minor units: decimal total x 100
	amount := decimal.NewFromInt(order.Total).Mul(decimal.NewFromInt(100))

	fields := map[string]string{
		"vnp_Version":    vnpVersion,
		"vnp_Command":    vnpCommand,
		"vnp_TmnCode":    a.cfg.TmnCode,
		"vnp_Locale":     vnpLocale,
		"vnp_CurrCode":   vnpCurrCode,
		"vnp_TxnRef":     order.ID,
		"vnp_OrderInfo":  fmt.Sprintf("Thanh toan don hang #%s", order.ID),
		"vnp_OrderType":  vnpOrderType,
		"vnp_Amount":     amount.String(),
		"vnp_ReturnUrl":  a.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format(vnpDateLayout),
	}

	canonical := Canonicalize(fields)
	signature := Sign(a.cfg.HashSecret, canonical)

	return a.cfg.URL + "?" + string(canonical) + "&" + vnpSecureHashField + "=" + signature, nil
}

// ParseReturn verifies the signed query of a return-redirect and extracts a
// Confirmation. The signature and its type indicator are removed from the
// field set before canonicalizing, not merely skipped.
func (a *VNPayAdapter) ParseReturn(query url.Values) (*Confirmation, error) {
	presented := query.Get(vnpSecureHashField)
	if presented == "" {
		return nil, ErrSignatureInvalid
	}

	fields := make(map[string]string, len(query))
	for k := range query {
		fields[k] = query.Get(k)
	}
	fields = stripSignatureFields(fields, vnpSecureHashField, vnpSecureHashTypeField)

	for k := range fields {
		if !vnpayReturnFields[k] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownField, k)
		}
	}

	if !Verify(a.cfg.HashSecret, Canonicalize(fields), presented) {
		return nil, ErrSignatureInvalid
	}

	orderID := fields["vnp_TxnRef"]
	if orderID == "" {
		return nil, ErrSignatureInvalid
	}

	// wire amount is total x 100; a remainder means the amount field was
	// never one we could have produced
	wireAmount, err := strconv.ParseInt(fields["vnp_Amount"], 10, 64)
	if err != nil || wireAmount < 0 || wireAmount%100 != 0 {
		return nil, ErrAmountMismatch
	}

	return &Confirmation{
		OrderID:       orderID,
		Success:       fields["vnp_ResponseCode"] == vnpSuccessCode,
		TransactionID: fields["vnp_TransactionNo"],
		Amount:        wireAmount / 100,
		Raw:           fields,
	}, nil
}
