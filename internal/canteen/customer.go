package canteen

import (
	"canteen-system/internal/feedback"
	"canteen-system/internal/order"
)

// Customer owns an append-only order history and feedback history. Both keep
// insertion order; display order is submission order.
type Customer struct {
	customerID   string
	name         string
	orderHistory []*order.Order
	feedbackList []*feedback.Feedback
}

// NewCustomer creates a customer with empty histories.
func NewCustomer(customerID, name string) *Customer {
	return &Customer{
		customerID: customerID,
		name:       name,
	}
}

func (c *Customer) CustomerID() string { return c.customerID }
func (c *Customer) Name() string       { return c.name }

// PlaceOrder appends an order to the customer's history. The checkout
// engine calls this only after a successful payment.
func (c *Customer) PlaceOrder(o *order.Order) {
	c.orderHistory = append(c.orderHistory, o)
}

// OrderHistory returns the customer's orders in placement order.
func (c *Customer) OrderHistory() []*order.Order {
	history := make([]*order.Order, len(c.orderHistory))
	copy(history, c.orderHistory)
	return history
}

// SubmitFeedback appends a feedback record to the customer's history.
func (c *Customer) SubmitFeedback(f *feedback.Feedback) {
	c.feedbackList = append(c.feedbackList, f)
}

// FeedbackList returns the customer's feedback in submission order.
func (c *Customer) FeedbackList() []*feedback.Feedback {
	list := make([]*feedback.Feedback, len(c.feedbackList))
	copy(list, c.feedbackList)
	return list
}
