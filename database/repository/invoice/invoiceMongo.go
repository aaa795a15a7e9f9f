package invoiceRepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ylgguide/models"
	"ylgguide/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoInvoiceRepo implements InvoiceRepository using MongoDB.
type MongoInvoiceRepo struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

// NewMongoInvoiceRepo creates an InvoiceRepository backed by the "invoices"
// and "invoice_counters" collections.
func NewMongoInvoiceRepo(db *mongo.Database) InvoiceRepository {
	repo := &MongoInvoiceRepo{
		coll:     db.Collection("invoices"),
		counters: db.Collection("invoice_counters"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("invoice indexes not ensured", zap.Error(err))
	}
	return repo
}

func (r *MongoInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, invoice)
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		switch {
		case strings.Contains(err.Error(), bookingIndexName), strings.Contains(err.Error(), "bookingId"):
			return ErrDuplicateBooking
		case strings.Contains(err.Error(), numberIndexName), strings.Contains(err.Error(), "invoiceNumber"):
			return ErrDuplicateNumber
		}
	}
	return fmt.Errorf("error creating invoice for booking %s: %w", invoice.BookingID, err)
}

func (r *MongoInvoiceRepo) GetByID(ctx context.Context, id string) (*models.Invoice, error) {
	return r.findOne(ctx, bson.M{"id": id}, id)
}

func (r *MongoInvoiceRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Invoice, error) {
	return r.findOne(ctx, bson.M{"bookingId": bookingID}, bookingID)
}

func (r *MongoInvoiceRepo) findOne(ctx context.Context, filter bson.M, key string) (*models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var inv models.Invoice
	if err := r.coll.FindOne(ctx, filter).Decode(&inv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("invoice", key)
		}
		return nil, fmt.Errorf("error fetching invoice %s: %w", key, err)
	}
	return &inv, nil
}

func (r *MongoInvoiceRepo) UpdateArtifact(ctx context.Context, id string, u models.ArtifactUpdate) error {
	set := bson.M{
		"generationStatus": u.Status,
		"generationError":  u.Error,
		"updatedAt":        time.Now().UTC(),
	}
	if u.PDFKey != "" {
		set["pdfKey"] = u.PDFKey
	}
	if u.GeneratedAt != nil {
		set["generatedAt"] = u.GeneratedAt
	}
	return r.update(ctx, id, bson.M{"$set": set})
}

func (r *MongoInvoiceRepo) RecordEmail(ctx context.Context, id string, a models.EmailAttempt) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if a.Sent {
		set["emailSent"] = true
		set["emailSentAt"] = a.SentAt
		set["lastEmailError"] = ""
	} else {
		set["lastEmailError"] = a.Error
	}
	return r.update(ctx, id, bson.M{"$set": set, "$inc": bson.M{"emailAttempts": a.Tries}})
}

func (r *MongoInvoiceRepo) update(ctx context.Context, id string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating invoice %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return utils.NewNotFoundError("invoice", id)
	}
	return nil
}

func (r *MongoInvoiceRepo) ListNeedingGeneration(ctx context.Context, olderThan time.Time, limit int) ([]*models.Invoice, error) {
	filter := bson.M{
		"generationStatus": bson.M{"$in": regenerableStatuses},
		"updatedAt":        bson.M{"$lt": olderThan},
	}
	return r.list(ctx, filter, limit)
}

func (r *MongoInvoiceRepo) ListUnsent(ctx context.Context, maxAttempts int, olderThan time.Time, limit int) ([]*models.Invoice, error) {
	filter := bson.M{
		"generationStatus": models.GenerationGenerated,
		"emailSent":        false,
		"emailAttempts":    bson.M{"$lt": maxAttempts},
		"updatedAt":        bson.M{"$lt": olderThan},
	}
	return r.list(ctx, filter, limit)
}

func (r *MongoInvoiceRepo) list(ctx context.Context, filter bson.M, limit int) ([]*models.Invoice, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: 1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing invoices: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*models.Invoice
	for cursor.Next(ctx) {
		var inv models.Invoice
		if err := cursor.Decode(&inv); err != nil {
			return nil, fmt.Errorf("error decoding invoice: %w", err)
		}
		out = append(out, &inv)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return out, nil
}

// NextSequence upserts the counter document and increments it in one round trip.
func (r *MongoInvoiceRepo) NextSequence(ctx context.Context, key string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{"$inc": bson.M{"seq": int64(1)}}

	var doc struct {
		Seq int64 `bson:"seq"`
	}
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.counters.FindOneAndUpdate(ctx, bson.M{"_id": key}, update, opts).Decode(&doc)
		// Two first-of-year upserts can race on _id; the loser retries as a plain increment.
		if err == nil || !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("error advancing invoice counter %s: %w", key, err)
	}
	return doc.Seq, nil
}
