// Package feedback holds customer feedback records and the stores that
// persist them. A record is immutable and complete at hand-off time; the
// storage format belongs to the store implementation.
package feedback

import (
	"context"
	"time"

	"canteen-system/internal/validation"
)

// Feedback is one customer's rating of one order. It references the order
// and customer by ID only.
type Feedback struct {
	FeedbackID string    `json:"feedback_id"`
	OrderID    string    `json:"order_id"`
	CustomerID string    `json:"customer_id"`
	Rating     int       `json:"rating"`
	Comments   string    `json:"comments"`
	CreatedAt  time.Time `json:"created_at"`
}

// New creates a feedback record. Rating must be in the closed range [1,5].
func New(feedbackID, orderID, customerID string, rating int, comments string) (*Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, validation.ValidationError{Field: "rating", Message: "rating must be between 1 and 5"}
	}

	return &Feedback{
		FeedbackID: feedbackID,
		OrderID:    orderID,
		CustomerID: customerID,
		Rating:     rating,
		Comments:   comments,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Store persists feedback records durably.
type Store interface {
	Save(ctx context.Context, f *Feedback) error
	ListByOrder(ctx context.Context, orderID string) ([]*Feedback, error)
}
