package feedback

import (
	"context"
	"fmt"

	"canteen-system/internal/database"
)

// PostgresStore persists feedback records in PostgreSQL. It is the durable
// hand-off target for submitted feedback.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a store backed by the given database.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts the record.
func (s *PostgresStore) Save(ctx context.Context, f *Feedback) error {
	err := s.db.Exec(ctx, database.InsertFeedbackSQL,
		f.FeedbackID, f.OrderID, f.CustomerID, f.Rating, f.Comments, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListByOrder returns the records for one order in submission order.
func (s *PostgresStore) ListByOrder(ctx context.Context, orderID string) ([]*Feedback, error) {
	rows, err := s.db.Query(ctx, database.GetFeedbackByOrderSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var records []*Feedback
	for rows.Next() {
		var f Feedback
		err := rows.Scan(&f.FeedbackID, &f.OrderID, &f.CustomerID, &f.Rating, &f.Comments, &f.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		records = append(records, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}

	return records, nil
}
