// Package checkout orchestrates the cart-to-order transition: validate the
// cart, settle the payment, snapshot the cart into an order and start its
// preparation lifecycle. The sequence is all-or-nothing: a failed payment
// leaves the cart, the customer and the vendor exactly as they were.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"canteen-system/internal/canteen"
	"canteen-system/internal/cart"
	"canteen-system/internal/feedback"
	"canteen-system/internal/logger"
	"canteen-system/internal/order"
	"canteen-system/internal/payment"
)

var (
	// ErrEmptyCart means checkout was attempted with nothing in the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotFound means no order with the given ID is registered.
	ErrOrderNotFound = errors.New("order not found")
)

// Engine runs checkouts and keeps the process-wide order registry. Order IDs
// come from a single atomic counter owned by the engine, so the order entity
// itself carries no shared mutable state.
type Engine struct {
	prepTime     time.Duration
	tickInterval time.Duration
	store        feedback.Store
	logger       *logger.Logger
	sinks        []order.StatusSink

	seq atomic.Uint64

	mu       sync.Mutex
	orders   []*order.Order
	ordersBy map[string]*order.Order
}

// NewEngine creates a checkout engine. Sinks are subscribed to every order
// the engine creates.
func NewEngine(prepTime, tickInterval time.Duration, store feedback.Store, log *logger.Logger, sinks ...order.StatusSink) *Engine {
	return &Engine{
		prepTime:     prepTime,
		tickInterval: tickInterval,
		store:        store,
		logger:       log,
		sinks:        sinks,
		ordersBy:     make(map[string]*order.Order),
	}
}

// Checkout turns the cart into an order, gated by a successful payment:
//
//  1. an empty cart fails immediately;
//  2. the payment method is built from the request, surfacing construction
//     errors before any order exists;
//  3. the method settles against the cart total, crediting the vendor only
//     on success;
//  4. on success the cart is snapshotted into an order, the order joins the
//     customer's history and the registry, the cart is cleared and the
//     preparation timers start.
//
// On any failure the cart, customer and vendor are untouched and no timers
// are running.
func (e *Engine) Checkout(ctx context.Context, c *cart.Cart, cust *canteen.Customer, vend *canteen.Vendor, req payment.Request) (*order.Order, payment.Receipt, error) {
	requestID := logger.GenerateRequestID()

	if c.IsEmpty() {
		return nil, payment.Receipt{}, ErrEmptyCart
	}

	method, err := payment.New(req)
	if err != nil {
		return nil, payment.Receipt{}, err
	}

	required := c.CalculateTotal()

	receipt, err := method.Settle(required, vend)
	if err != nil {
		e.logger.Debug("payment_declined", "Payment was declined", requestID, map[string]interface{}{
			"payment_method": string(method.Kind()),
			"required":       required,
		})
		return nil, payment.Receipt{}, fmt.Errorf("payment declined: %w", err)
	}

	o := e.buildOrder(c, cust, vend)
	cust.PlaceOrder(o)
	e.register(o)
	c.ClearCart()

	// Timers start only after the payment has settled, so a declined
	// attempt never leaves a ticking order behind.
	o.StartPreparation(e.prepTime, e.tickInterval)

	e.logger.Info("order_created", "Checkout completed", requestID, map[string]interface{}{
		"order_id":       o.OrderID(),
		"customer_id":    cust.CustomerID(),
		"vendor_id":      vend.VendorID(),
		"total_amount":   o.TotalAmount(),
		"payment_method": string(receipt.Method),
	})

	return o, receipt, nil
}

// buildOrder snapshots the cart into a new pending order with subscribers
// attached.
func (e *Engine) buildOrder(c *cart.Cart, cust *canteen.Customer, vend *canteen.Vendor) *order.Order {
	cartLines := c.Lines()
	lines := make([]order.Line, 0, len(cartLines))
	for _, line := range cartLines {
		lines = append(lines, order.Line{
			ItemID:   line.Item.ItemID(),
			Name:     line.Item.Name(),
			Quantity: line.Quantity,
			Price:    line.Item.Price(),
		})
	}

	orderID := fmt.Sprintf("ORD-%d", e.seq.Add(1))
	o := order.New(orderID, cust.CustomerID(), vend.VendorID(), lines, c.CalculateTotal())

	o.Subscribe(&logSink{logger: e.logger})
	for _, sink := range e.sinks {
		o.Subscribe(sink)
	}

	return o
}

func (e *Engine) register(o *order.Order) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orders = append(e.orders, o)
	e.ordersBy[o.OrderID()] = o
}

// FindOrder returns the order with the given ID, or nil.
func (e *Engine) FindOrder(orderID string) *order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ordersBy[orderID]
}

// OrdersByCustomer returns the customer's orders in placement order.
func (e *Engine) OrdersByCustomer(customerID string) []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	var matches []*order.Order
	for _, o := range e.orders {
		if o.CustomerID() == customerID {
			matches = append(matches, o)
		}
	}
	return matches
}

// OrdersByVendor returns the vendor's orders in placement order.
func (e *Engine) OrdersByVendor(vendorID string) []*order.Order {
	e.mu.Lock()
	defer e.mu.Unlock()

	var matches []*order.Order
	for _, o := range e.orders {
		if o.VendorID() == vendorID {
			matches = append(matches, o)
		}
	}
	return matches
}

// CancelOrder cancels the order if it is not already fulfilled. Cancelling
// a fulfilled order is a documented no-op, not an error; the second return
// reports whether the cancellation was committed.
func (e *Engine) CancelOrder(orderID string) (*order.Order, bool, error) {
	o := e.FindOrder(orderID)
	if o == nil {
		return nil, false, ErrOrderNotFound
	}
	return o, o.Cancel(), nil
}

// SubmitFeedback validates and records feedback for one of the customer's
// orders, appends it to the customer's and vendor's histories, and hands
// the immutable record to the durable store.
func (e *Engine) SubmitFeedback(ctx context.Context, cust *canteen.Customer, vend *canteen.Vendor, orderID string, rating int, comments string) (*feedback.Feedback, error) {
	o := e.FindOrder(orderID)
	if o == nil || o.CustomerID() != cust.CustomerID() {
		return nil, ErrOrderNotFound
	}

	f, err := feedback.New(uuid.NewString(), orderID, cust.CustomerID(), rating, comments)
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	cust.SubmitFeedback(f)
	vend.AddFeedback(f)

	e.logger.Info("feedback_submitted", "Feedback recorded", "", map[string]interface{}{
		"feedback_id": f.FeedbackID,
		"order_id":    orderID,
		"rating":      rating,
	})

	return f, nil
}

// logSink logs committed order transitions.
type logSink struct {
	logger *logger.Logger
}

func (s *logSink) OrderStatusChanged(orderID string, oldStatus, newStatus order.Status, remaining time.Duration) {
	s.logger.Info("order_status_changed", fmt.Sprintf("Order %s is now %s", orderID, newStatus), "", map[string]interface{}{
		"order_id":     orderID,
		"old_status":   string(oldStatus),
		"new_status":   string(newStatus),
		"remaining_ms": remaining.Milliseconds(),
	})
}

func (s *logSink) OrderProgress(orderID string, status order.Status, remaining time.Duration) {
	s.logger.Debug("order_progress", fmt.Sprintf("Order %s: %v remaining", orderID, remaining), "", map[string]interface{}{
		"order_id":     orderID,
		"status":       string(status),
		"remaining_ms": remaining.Milliseconds(),
	})
}
