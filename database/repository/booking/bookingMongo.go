package bookingRepo

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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo creates a BookingRepository backed by the "bookings" collection.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{coll: db.Collection("bookings")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("booking indexes not ensured", zap.Error(err))
	}
	return repo
}

func newContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Second)
}

// Create inserts a new booking document.
func (r *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := newContext(ctx)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking %s: %w", booking.ID, err)
	}
	return nil
}

// GetByID retrieves a booking by its id.
func (r *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"id": id}, id)
}

// GetByOrderID retrieves a booking by its gateway order id.
func (r *MongoBookingRepo) GetByOrderID(ctx context.Context, orderID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"gatewayOrderId": orderID}, orderID)
}

func (r *MongoBookingRepo) findOne(ctx context.Context, filter bson.M, key string) (*models.Booking, error) {
	ctx, cancel := newContext(ctx)
	defer cancel()

	var booking models.Booking
	if err := r.coll.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, utils.NewNotFoundError("booking", key)
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", key, err)
	}
	return &booking, nil
}

func (r *MongoBookingRepo) AssignOrder(ctx context.Context, id string, a models.OrderAssignment) (bool, error) {
	filter := bson.M{"id": id, "bookingStatus": models.BookingPending}
	update := bson.M{"$set": bson.M{
		"bookingStatus":  models.BookingPaymentInitiated,
		"paymentStatus":  models.PaymentStateProcessing,
		"provider":       a.Provider,
		"gatewayOrderId": a.OrderID,
		"isMock":         a.IsMock,
		"updatedAt":      time.Now().UTC(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *MongoBookingRepo) Confirm(ctx context.Context, id string, c models.BookingConfirmation) (bool, error) {
	filter := bson.M{"id": id, "bookingStatus": bson.M{"$ne": models.BookingConfirmed}}
	set := bson.M{
		"bookingStatus": models.BookingConfirmed,
		"paymentStatus": models.PaymentStatePaid,
		"confirmedAt":   c.ConfirmedAt,
		"updatedAt":     c.ConfirmedAt,
	}
	if c.PaymentID != "" {
		set["gatewayPaymentId"] = c.PaymentID
	}
	return r.conditionalUpdate(ctx, id, filter, bson.M{"$set": set})
}

func (r *MongoBookingRepo) MarkFailed(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "bookingStatus": bson.M{"$in": failableStatuses}}
	update := bson.M{"$set": bson.M{
		"bookingStatus": models.BookingFailed,
		"paymentStatus": models.PaymentStateFailed,
		"updatedAt":     time.Now().UTC(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *MongoBookingRepo) MarkRefunded(ctx context.Context, id string) (bool, error) {
	filter := bson.M{
		"id":            id,
		"bookingStatus": models.BookingConfirmed,
		"paymentStatus": bson.M{"$ne": models.PaymentStateRefunded},
	}
	update := bson.M{"$set": bson.M{
		"paymentStatus": models.PaymentStateRefunded,
		"updatedAt":     time.Now().UTC(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

func (r *MongoBookingRepo) Cancel(ctx context.Context, id string) (bool, error) {
	filter := bson.M{"id": id, "bookingStatus": bson.M{"$in": cancellableStatuses}}
	update := bson.M{"$set": bson.M{
		"bookingStatus": models.BookingCancelled,
		"updatedAt":     time.Now().UTC(),
	}}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// conditionalUpdate applies update when filter matches. A miss is reported as
// false when the booking exists and as NotFoundError when it does not.
func (r *MongoBookingRepo) conditionalUpdate(ctx context.Context, id string, filter, update bson.M) (bool, error) {
	ctx, cancel := newContext(ctx)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("error updating booking %s: %w", id, err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking booking %s: %w", id, err)
	}
	if count == 0 {
		return false, utils.NewNotFoundError("booking", id)
	}
	return false, nil
}
