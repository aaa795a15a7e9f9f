package invoiceRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	bookingIndexName = "unique_booking_id"
	numberIndexName  = "unique_invoice_number"
)

// ensureIndexes creates the unique indexes that back invoice idempotency.
func (r *MongoInvoiceRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "bookingId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(bookingIndexName),
		},
		{
			Keys:    bson.D{{Key: "invoiceNumber", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(numberIndexName),
		},
		{
			Keys:    bson.D{{Key: "generationStatus", Value: 1}, {Key: "updatedAt", Value: 1}},
			Options: options.Index().SetName("generation_status_updated_idx"),
		},
		{
			Keys:    bson.D{{Key: "emailSent", Value: 1}, {Key: "emailAttempts", Value: 1}},
			Options: options.Index().SetName("email_sent_attempts_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}
	return nil
}
