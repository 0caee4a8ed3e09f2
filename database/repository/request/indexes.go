package requestRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes backing the repository's queries.
func (r *MongoRequestRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One successor per request: concurrent rebookings of the same link cannot fork the chain.
		{
			Keys: bson.D{{Key: "previous_request_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_previous_request").
				SetPartialFilterExpression(bson.M{"previous_request_id": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "counterparty_id", Value: 1}, {Key: "state", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("counterparty_state_expires_idx"),
		},
		{
			Keys:    bson.D{{Key: "initiator_id", Value: 1}, {Key: "state", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("initiator_state_expires_idx"),
		},
		// Sweep query.
		{
			Keys:    bson.D{{Key: "state", Value: 1}, {Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("state_expires_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking request indexes: %w", err)
	}
	return nil
}
