package gateway

import "errors"

var (
	// ErrSignatureInvalid means a redirect-return's digest did not match the
	// recomputed one. Details are never disclosed to the caller.
	ErrSignatureInvalid = errors.New("gateway: invalid signature")

	// ErrWebhookUnverified means a webhook payload failed its authenticity
	// check.
	ErrWebhookUnverified = errors.New("gateway: webhook signature unverified")

	// ErrWebhookInvalid means a webhook payload was verified or verifiable
	// but structurally unusable (missing fields, unparseable order reference).
	ErrWebhookInvalid = errors.New("gateway: malformed webhook payload")

	// ErrAmountMismatch means the signed amount disagrees with the order
	// total. Treated as fraud-suspect: rejected, order untouched.
	ErrAmountMismatch = errors.New("gateway: amount does not match order total")

	// ErrUnknownField means an inbound field set carried a gateway parameter
	// outside the closed set this adapter signs.
	ErrUnknownField = errors.New("gateway: unexpected field in payload")
)

// Confirmation is a verified assertion from a payment gateway that an
// order's payment succeeded or failed. Only adapters construct these;
// anything holding a Confirmation may trust that its signature checked out.
// Adapters do not touch the order store: cross-checking Amount and
// PaymentCode against the stored order is the ledger's job.
type Confirmation struct {
	OrderID       string
	Success       bool
	TransactionID string
	// Amount is the confirmed amount in the order's own units.
	Amount int64
	// PaymentCode is the attempt correlation number, zero when the gateway
	// does not echo one.
	PaymentCode int64
	// Raw keeps the verified field set for audit logging.
	Raw map[string]string
}
