package paymentRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ylgguide/models"
	"ylgguide/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoPaymentRepo implements PaymentRepository using MongoDB.
type MongoPaymentRepo struct {
	coll *mongo.Collection
}

// NewMongoPaymentRepo creates a PaymentRepository backed by the "payments" collection.
func NewMongoPaymentRepo(db *mongo.Database) PaymentRepository {
	repo := &MongoPaymentRepo{coll: db.Collection("payments")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("payment indexes not ensured", zap.Error(err))
	}
	return repo
}

func (r *MongoPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, payment); err != nil {
		return fmt.Errorf("error creating payment for order %s: %w", payment.OrderID, err)
	}
	return nil
}

func (r *MongoPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"orderId": orderID}, orderID)
}

func (r *MongoPaymentRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Payment, error) {
	return r.findOne(ctx, bson.M{"bookingId": bookingID}, bookingID)
}

func (r *MongoPaymentRepo) findOne(ctx context.Context, filter bson.M, key string) (*models.Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var p models.Payment
	if err := r.coll.FindOne(ctx, filter).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("payment", key)
		}
		return nil, fmt.Errorf("error fetching payment %s: %w", key, err)
	}
	return &p, nil
}

func (r *MongoPaymentRepo) Transition(ctx context.Context, orderID string, to models.PaymentStatus, o models.PaymentOutcome) (*models.Payment, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if o.At.IsZero() {
		o.At = time.Now().UTC()
	}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	filter := bson.M{"orderId": orderID, "status": bson.M{"$in": models.SourcesFor(to)}}
	update := bson.M{"$set": outcomeFields(to, o), "$inc": bson.M{"retryCount": 1}}

	var p models.Payment
	err := r.coll.FindOneAndUpdate(ctx, filter, update, after).Decode(&p)
	if err == nil {
		return &p, true, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("error transitioning payment %s to %s: %w", orderID, to, err)
	}

	// Guard lost: record the redelivery and return the stored state.
	redelivery := bson.M{
		"$inc": bson.M{"retryCount": 1},
		"$set": bson.M{"updatedAt": o.At},
	}
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"orderId": orderID}, redelivery, after).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, utils.NewNotFoundError("payment", orderID)
	}
	if err != nil {
		return nil, false, fmt.Errorf("error recording redelivery for payment %s: %w", orderID, err)
	}
	return &p, false, nil
}
