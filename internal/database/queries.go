package database

// Feedback queries
const (
	InsertFeedbackSQL = `
		INSERT INTO feedback (feedback_id, order_id, customer_id, rating, comments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	GetFeedbackByOrderSQL = `
		SELECT feedback_id, order_id, customer_id, rating, comments, created_at
		FROM feedback
		WHERE order_id = $1
		ORDER BY created_at ASC`
)
