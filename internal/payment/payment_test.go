package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteen-system/internal/validation"
)

// fakeRecorder records settled amounts in place of a vendor.
type fakeRecorder struct {
	total float64
	calls int
}

func (r *fakeRecorder) RecordEarnings(amount float64) {
	r.total += amount
	r.calls++
}

func TestCashConstruction(t *testing.T) {
	_, err := Cash(-0.01)
	var validationErr validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cash_tendered", validationErr.Field)

	_, err = Cash(0)
	assert.NoError(t, err)
}

func TestDigitalConstruction(t *testing.T) {
	_, err := Digital("")
	var validationErr validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "transaction_credential", validationErr.Field)

	_, err = Digital("TXN-001")
	assert.NoError(t, err)
}

func TestCashSettleInsufficientFunds(t *testing.T) {
	recorder := &fakeRecorder{}
	method, err := Cash(30.0)
	require.NoError(t, err)

	_, err = method.Settle(40.0, recorder)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrInvalidCredential)

	// A failed settle records nothing
	assert.Zero(t, recorder.total)
	assert.Zero(t, recorder.calls)
}

func TestCashSettleExactAmount(t *testing.T) {
	recorder := &fakeRecorder{}
	method, err := Cash(40.0)
	require.NoError(t, err)

	receipt, err := method.Settle(40.0, recorder)
	require.NoError(t, err)

	assert.Equal(t, KindCash, receipt.Method)
	assert.Zero(t, receipt.Change)
	assert.InDelta(t, 40.0, recorder.total, 1e-9)
}

func TestCashSettleCreditsRequiredNotTendered(t *testing.T) {
	recorder := &fakeRecorder{}
	method, err := Cash(50.0)
	require.NoError(t, err)

	receipt, err := method.Settle(40.0, recorder)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, receipt.Change, 1e-9)
	assert.InDelta(t, 40.0, recorder.total, 1e-9)
	assert.Equal(t, 1, recorder.calls)
}

func TestDigitalSettle(t *testing.T) {
	tests := []struct {
		name       string
		credential string
		wantErr    error
	}{
		{"recognized prefix", "TXN-001", nil},
		{"bare prefix", "TXN", nil},
		{"unrecognized prefix", "ABC-001", ErrInvalidCredential},
		{"prefix not at start", "001-TXN", ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &fakeRecorder{}
			method, err := Digital(tt.credential)
			require.NoError(t, err)

			receipt, err := method.Settle(25.0, recorder)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, recorder.total)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, KindDigital, receipt.Method)
			assert.InDelta(t, 25.0, recorder.total, 1e-9)
		})
	}
}

func TestNewDispatch(t *testing.T) {
	method, err := New(Request{Method: KindCash, CashTendered: 20.0})
	require.NoError(t, err)
	assert.Equal(t, KindCash, method.Kind())

	method, err = New(Request{Method: KindDigital, Credential: "TXN-7"})
	require.NoError(t, err)
	assert.Equal(t, KindDigital, method.Kind())

	_, err = New(Request{Method: "cheque"})
	var validationErr validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "payment_method", validationErr.Field)
}
