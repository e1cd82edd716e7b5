// Package order implements the timer-driven order lifecycle. Status moves
// one way only: pending -> preparing -> ready, or to cancelled from any
// non-terminal state. Transitions that no longer apply are silently ignored.
package order

import (
	"sync"
	"time"
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCancelled Status = "cancelled"

	// StatusCompleted is the fulfilled terminal state; it is the same state
	// as StatusReady on the wire.
	StatusCompleted = StatusReady
)

// Terminal reports whether no further transition can leave this status.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusCancelled
}

// Line is one immutable entry of the order's item snapshot.
type Line struct {
	ItemID   string  `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// StatusSink observes an order's lifecycle. OrderStatusChanged is invoked
// synchronously on every committed transition; OrderProgress on every tick
// while preparation is running.
type StatusSink interface {
	OrderStatusChanged(orderID string, oldStatus, newStatus Status, remaining time.Duration)
	OrderProgress(orderID string, status Status, remaining time.Duration)
}

// Order is a snapshot of cart contents taken at checkout. The customer and
// vendor are referenced by ID only; the order does not own their lifecycle.
type Order struct {
	orderID    string
	customerID string
	vendorID   string
	lines      []Line
	total      float64
	createdAt  time.Time

	mu      sync.Mutex
	status  Status
	started bool
	readyAt time.Time
	sinks   []StatusSink
}

// New creates an order in the pending state. Preparation timers do not run
// until StartPreparation is called.
func New(orderID, customerID, vendorID string, lines []Line, total float64) *Order {
	snapshot := make([]Line, len(lines))
	copy(snapshot, lines)

	return &Order{
		orderID:    orderID,
		customerID: customerID,
		vendorID:   vendorID,
		lines:      snapshot,
		total:      total,
		createdAt:  time.Now().UTC(),
		status:     StatusPending,
	}
}

func (o *Order) OrderID() string      { return o.orderID }
func (o *Order) CustomerID() string   { return o.customerID }
func (o *Order) VendorID() string     { return o.vendorID }
func (o *Order) TotalAmount() float64 { return o.total }
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// Lines returns a copy of the item snapshot.
func (o *Order) Lines() []Line {
	lines := make([]Line, len(o.lines))
	copy(lines, o.lines)
	return lines
}

// Status returns the current lifecycle status. Safe to poll from any
// goroutine.
func (o *Order) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Remaining returns the time left until the order is due to be ready, or 0
// if preparation has not started or the order is terminal.
func (o *Order) Remaining() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.remainingLocked()
}

func (o *Order) remainingLocked() time.Duration {
	if !o.started || o.status.Terminal() {
		return 0
	}
	remaining := time.Until(o.readyAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Subscribe registers a sink for transition and progress notifications.
func (o *Order) Subscribe(sink StatusSink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sinks = append(o.sinks, sink)
}

// StartPreparation schedules the two lifecycle triggers: pending->preparing
// at half the preparation time and preparing->ready at the full time. The
// triggers are independent; each one is a no-op if the status already moved
// past its expected source state. A positive tick interval additionally
// reports remaining time to subscribers until the order is terminal.
// Calling StartPreparation more than once has no effect.
func (o *Order) StartPreparation(prepTime, tickInterval time.Duration) {
	o.mu.Lock()
	if o.started || o.status.Terminal() {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.readyAt = time.Now().Add(prepTime)
	o.mu.Unlock()

	time.AfterFunc(prepTime/2, func() {
		o.transition(StatusPending, StatusPreparing)
	})
	time.AfterFunc(prepTime, func() {
		o.transition(StatusPreparing, StatusReady)
	})

	if tickInterval > 0 {
		go o.tickLoop(tickInterval)
	}
}

// tickLoop reports preparation progress until the order reaches a terminal
// state. The loop polls status, so it stops within one tick of cancellation.
func (o *Order) tickLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		o.mu.Lock()
		status := o.status
		remaining := o.remainingLocked()
		sinks := append([]StatusSink(nil), o.sinks...)
		o.mu.Unlock()

		if status.Terminal() {
			return
		}
		for _, sink := range sinks {
			sink.OrderProgress(o.orderID, status, remaining)
		}
	}
}

// Cancel moves the order to cancelled unless it is already terminal. A
// fulfilled order cannot be retroactively cancelled; that attempt is a no-op.
// It reports whether the cancellation was committed.
func (o *Order) Cancel() bool {
	o.mu.Lock()
	if o.status.Terminal() {
		o.mu.Unlock()
		return false
	}
	old := o.status
	o.status = StatusCancelled
	sinks := append([]StatusSink(nil), o.sinks...)
	o.mu.Unlock()

	o.notify(sinks, old, StatusCancelled, 0)
	return true
}

// transition performs a compare-and-set from one status to another. It
// reports whether the transition was committed; a mismatch on the source
// state means the order already moved on and the attempt is ignored.
func (o *Order) transition(from, to Status) bool {
	o.mu.Lock()
	if o.status != from {
		o.mu.Unlock()
		return false
	}
	o.status = to
	remaining := o.remainingLocked()
	sinks := append([]StatusSink(nil), o.sinks...)
	o.mu.Unlock()

	o.notify(sinks, from, to, remaining)
	return true
}

func (o *Order) notify(sinks []StatusSink, oldStatus, newStatus Status, remaining time.Duration) {
	for _, sink := range sinks {
		sink.OrderStatusChanged(o.orderID, oldStatus, newStatus, remaining)
	}
}
