package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canteen-system/internal/canteen"
	"canteen-system/internal/cart"
	"canteen-system/internal/feedback"
	"canteen-system/internal/logger"
	"canteen-system/internal/menu"
	"canteen-system/internal/order"
	"canteen-system/internal/payment"
	"canteen-system/internal/validation"
)

type fixture struct {
	engine *Engine
	cart   *cart.Cart
	cust   *canteen.Customer
	vend   *canteen.Vendor
	store  *feedback.MemoryStore
}

// newFixture builds an engine with a long prep time so orders stay pending
// for the duration of a test unless it waits on purpose.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := feedback.NewMemoryStore()
	f := &fixture{
		engine: NewEngine(time.Minute, 0, store, logger.New("test")),
		cust:   canteen.NewCustomer("C001", "John Doe"),
		vend:   canteen.NewVendor("V001", "Abhyasi Cafe"),
		store:  store,
	}
	f.cart = cart.New("CART-1", f.cust.CustomerID())

	for _, s := range []struct {
		id    string
		name  string
		price float64
	}{
		{"F001", "Veg Momo", 12.5},
		{"F002", "Burger", 15.0},
		{"F003", "Cold Coffee", 10.0},
	} {
		item, err := menu.NewFoodItem(s.id, s.name, s.price, "Snacks")
		require.NoError(t, err)
		f.vend.Menu().AddItem(item)
	}
	return f
}

// fillCart puts two momos and one burger in the cart, totalling 40.00.
func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	momo := f.vend.Menu().FindByID("F001")
	burger := f.vend.Menu().FindByID("F002")
	require.NotNil(t, momo)
	require.NotNil(t, burger)

	f.cart.AddItem(momo)
	f.cart.AddItem(momo)
	f.cart.AddItem(burger)
	require.InDelta(t, 40.0, f.cart.CalculateTotal(), 1e-9)
}

func TestCheckoutCashHappyPath(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, receipt, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 50.0})
	require.NoError(t, err)

	assert.Equal(t, payment.KindCash, receipt.Method)
	assert.InDelta(t, 40.0, receipt.Amount, 1e-9)
	assert.InDelta(t, 10.0, receipt.Change, 1e-9)

	// The vendor is credited the order total, not the tendered cash
	assert.InDelta(t, 40.0, f.vend.Earnings(), 1e-9)

	// The cart is cleared, the order registered and placed in history
	assert.True(t, f.cart.IsEmpty())
	assert.Same(t, o, f.engine.FindOrder(o.OrderID()))
	require.Len(t, f.cust.OrderHistory(), 1)
	assert.Equal(t, o.OrderID(), f.cust.OrderHistory()[0].OrderID())

	// The snapshot carries the cart's lines and total
	assert.InDelta(t, 40.0, o.TotalAmount(), 1e-9)
	assert.Len(t, o.Lines(), 2)
	assert.Equal(t, order.StatusPending, o.Status())
}

func TestCheckoutDigitalHappyPath(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, receipt, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindDigital, Credential: "TXN-12345"})
	require.NoError(t, err)

	assert.Equal(t, payment.KindDigital, receipt.Method)
	assert.Zero(t, receipt.Change)
	assert.InDelta(t, 40.0, f.vend.Earnings(), 1e-9)
	assert.NotNil(t, o)
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 100.0})
	require.ErrorIs(t, err, ErrEmptyCart)

	assert.Zero(t, f.vend.Earnings())
	assert.Empty(t, f.cust.OrderHistory())
}

func TestCheckoutInsufficientCashLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 30.0})
	require.ErrorIs(t, err, payment.ErrInsufficientFunds)

	// The failed attempt changes nothing: same cart, no order, no earnings
	assert.InDelta(t, 40.0, f.cart.CalculateTotal(), 1e-9)
	assert.Zero(t, f.vend.Earnings())
	assert.Empty(t, f.cust.OrderHistory())
	assert.Empty(t, f.engine.OrdersByCustomer(f.cust.CustomerID()))
}

func TestCheckoutInvalidCredential(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindDigital, Credential: "ABC-12345"})
	require.ErrorIs(t, err, payment.ErrInvalidCredential)
	assert.NotErrorIs(t, err, payment.ErrInsufficientFunds)

	assert.InDelta(t, 40.0, f.cart.CalculateTotal(), 1e-9)
	assert.Zero(t, f.vend.Earnings())
}

func TestCheckoutRejectsMalformedRequest(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: -5.0})

	var validationErr validation.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "cash_tendered", validationErr.Field)
	assert.Zero(t, f.vend.Earnings())
}

func TestOrderIDsAreSequential(t *testing.T) {
	f := newFixture(t)
	momo := f.vend.Menu().FindByID("F001")

	var ids []string
	for i := 0; i < 3; i++ {
		f.cart.AddItem(momo)
		o, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
			payment.Request{Method: payment.KindCash, CashTendered: 20.0})
		require.NoError(t, err)
		ids = append(ids, o.OrderID())
	}

	assert.Equal(t, []string{"ORD-1", "ORD-2", "ORD-3"}, ids)
	assert.Len(t, f.engine.OrdersByCustomer("C001"), 3)
	assert.Len(t, f.engine.OrdersByVendor("V001"), 3)
	assert.Empty(t, f.engine.OrdersByVendor("V999"))
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 40.0})
	require.NoError(t, err)

	cancelled, committed, err := f.engine.CancelOrder(o.OrderID())
	require.NoError(t, err)
	assert.True(t, committed)
	assert.Equal(t, order.StatusCancelled, cancelled.Status())

	// A second cancel is a no-op, not an error
	_, committed, err = f.engine.CancelOrder(o.OrderID())
	require.NoError(t, err)
	assert.False(t, committed)

	_, _, err = f.engine.CancelOrder("ORD-999")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSubmitFeedback(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	o, _, err := f.engine.Checkout(ctx, f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 40.0})
	require.NoError(t, err)

	fb, err := f.engine.SubmitFeedback(ctx, f.cust, f.vend, o.OrderID(), 5, "great momos")
	require.NoError(t, err)
	assert.NotEmpty(t, fb.FeedbackID)
	assert.Equal(t, o.OrderID(), fb.OrderID)
	assert.Equal(t, 5, fb.Rating)

	// Both parties hold the record, and the store has it
	require.Len(t, f.cust.FeedbackList(), 1)
	require.Len(t, f.vend.FeedbackList(), 1)
	stored, err := f.store.ListByOrder(ctx, o.OrderID())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, fb.FeedbackID, stored[0].FeedbackID)
}

func TestSubmitFeedbackRejectsBadRating(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	o, _, err := f.engine.Checkout(ctx, f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 40.0})
	require.NoError(t, err)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.engine.SubmitFeedback(ctx, f.cust, f.vend, o.OrderID(), rating, "")
		var validationErr validation.ValidationError
		assert.ErrorAs(t, err, &validationErr, "rating %d", rating)
	}
	assert.Empty(t, f.cust.FeedbackList())
}

func TestSubmitFeedbackUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.SubmitFeedback(context.Background(), f.cust, f.vend, "ORD-999", 4, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSubmitFeedbackForeignOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	o, _, err := f.engine.Checkout(ctx, f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 40.0})
	require.NoError(t, err)

	stranger := canteen.NewCustomer("C002", "Jane Roe")
	_, err = f.engine.SubmitFeedback(ctx, stranger, f.vend, o.OrderID(), 4, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCheckoutStartsLifecycle(t *testing.T) {
	store := feedback.NewMemoryStore()
	engine := NewEngine(100*time.Millisecond, 0, store, logger.New("test"))
	cust := canteen.NewCustomer("C001", "John Doe")
	vend := canteen.NewVendor("V001", "Abhyasi Cafe")
	momo, err := menu.NewFoodItem("F001", "Veg Momo", 12.5, "Snacks")
	require.NoError(t, err)
	vend.Menu().AddItem(momo)

	c := cart.New("CART-1", cust.CustomerID())
	c.AddItem(momo)

	o, _, err := engine.Checkout(context.Background(), c, cust, vend,
		payment.Request{Method: payment.KindCash, CashTendered: 12.5})
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, order.StatusReady, o.Status())
}

func TestDeclinedPaymentWrapsSettleError(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, _, err := f.engine.Checkout(context.Background(), f.cart, f.cust, f.vend,
		payment.Request{Method: payment.KindCash, CashTendered: 1.0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, payment.ErrInsufficientFunds))
	assert.Contains(t, err.Error(), "payment declined")
}
