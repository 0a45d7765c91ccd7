package prediction

import "context"

// Repository describes the predictions backend operations the chip engine relies on.
// Update is the only way chip membership on a prediction changes.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]Prediction, error)
	Update(ctx context.Context, userID, predictionID string, input UpdateInput) error
}
