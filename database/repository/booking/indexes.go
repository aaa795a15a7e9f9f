package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes the booking queries rely on.
func (r *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "gatewayOrderId", Value: 1}},
			Options: options.Index().SetName("gateway_order_idx").SetSparse(true),
		},
		{
			Keys:    bson.D{{Key: "guest.email", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("guest_email_created_idx"),
		},
		{
			Keys:    bson.D{{Key: "bookingStatus", Value: 1}},
			Options: options.Index().SetName("booking_status_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
