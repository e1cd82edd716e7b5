// Package payment implements the two settlement methods the canteen accepts.
// A method is a short-lived value constructed per checkout attempt; it never
// outlives the checkout call that created it.
package payment

import (
	"errors"
	"strings"

	"canteen-system/internal/validation"
)

// Kind identifies a settlement method. The set is closed: adding a variant
// means extending the switch in Settle, not subclassing.
type Kind string

const (
	KindCash    Kind = "cash"
	KindDigital Kind = "digital"
)

// credentialPrefix is the fixed marker a digital transaction credential must
// start with. It stands in for a real gateway call and is not configurable.
const credentialPrefix = "TXN"

var (
	// ErrInsufficientFunds means the tendered cash did not cover the total.
	ErrInsufficientFunds = errors.New("insufficient cash tendered")
	// ErrInvalidCredential means the digital credential was rejected.
	ErrInvalidCredential = errors.New("invalid transaction credential")
)

// EarningsRecorder receives the settled amount on success. The vendor
// implements it; nothing is recorded on a failed settle.
type EarningsRecorder interface {
	RecordEarnings(amount float64)
}

// Method is a validated settlement method.
type Method struct {
	kind       Kind
	tendered   float64
	credential string
}

// Request carries the raw payment details collected at checkout.
type Request struct {
	Method       Kind
	CashTendered float64
	Credential   string
}

// New builds a Method from checkout details, failing fast on invalid input.
func New(req Request) (Method, error) {
	switch req.Method {
	case KindCash:
		return Cash(req.CashTendered)
	case KindDigital:
		return Digital(req.Credential)
	default:
		return Method{}, validation.ValidationError{Field: "payment_method", Message: "must be cash or digital"}
	}
}

// Cash creates a cash method. The tendered amount must not be negative.
func Cash(tendered float64) (Method, error) {
	if tendered < 0 {
		return Method{}, validation.ValidationError{Field: "cash_tendered", Message: "tendered amount cannot be negative"}
	}
	return Method{kind: KindCash, tendered: tendered}, nil
}

// Digital creates a digital method. The credential must not be empty.
func Digital(credential string) (Method, error) {
	if credential == "" {
		return Method{}, validation.ValidationError{Field: "transaction_credential", Message: "credential is required"}
	}
	return Method{kind: KindDigital, credential: credential}, nil
}

func (m Method) Kind() Kind { return m.kind }

// Receipt describes a successful settlement.
type Receipt struct {
	Method Kind    `json:"payment_method"`
	Amount float64 `json:"amount"`
	Change float64 `json:"change"`
}

// Settle validates the method against the required amount and, only on
// success, credits the required amount (not the tendered amount) to the
// earnings recorder. A failed settle records nothing.
func (m Method) Settle(required float64, earnings EarningsRecorder) (Receipt, error) {
	switch m.kind {
	case KindCash:
		if m.tendered < required {
			return Receipt{}, ErrInsufficientFunds
		}
		earnings.RecordEarnings(required)
		return Receipt{Method: KindCash, Amount: required, Change: m.tendered - required}, nil
	case KindDigital:
		if !strings.HasPrefix(m.credential, credentialPrefix) {
			return Receipt{}, ErrInvalidCredential
		}
		earnings.RecordEarnings(required)
		return Receipt{Method: KindDigital, Amount: required}, nil
	default:
		return Receipt{}, ErrInvalidCredential
	}
}
