package requestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanly/models"
	"cleanly/utils/apperr"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const opTimeout = 5 * time.Second

// MongoRequestRepo implements RequestRepository using MongoDB.
type MongoRequestRepo struct {
	coll *mongo.Collection
}

// NewMongoRequestRepo creates the repository on the "booking_requests"
// collection of db and makes sure its indexes exist.
func NewMongoRequestRepo(db *mongo.Database) (*MongoRequestRepo, error) {
	repo := &MongoRequestRepo{coll: db.Collection("booking_requests")}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoRequestRepo) Create(ctx context.Context, req *models.BookingRequest) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			if req.PreviousRequestID != "" {
				return apperr.Newf(apperr.KindAlreadyResolved,
					"booking request %s has already been rebooked", req.PreviousRequestID)
			}
			return apperr.Newf(apperr.KindInvalidInput, "booking request %s already exists", req.ID)
		}
		return apperr.Unavailable("create booking request", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetByID(ctx context.Context, id string) (*models.BookingRequest, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *MongoRequestRepo) GetSuccessor(ctx context.Context, id string) (*models.BookingRequest, error) {
	return r.findOne(ctx, bson.M{"previous_request_id": id})
}

func (r *MongoRequestRepo) findOne(ctx context.Context, filter bson.M) (*models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var req models.BookingRequest
	if err := r.coll.FindOne(ctx, filter).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperr.ErrNotFound
		}
		return nil, apperr.Unavailable("fetch booking request", err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) ListPendingForActor(ctx context.Context, actorID string, role models.ActorRole, now time.Time) ([]models.BookingRequest, error) {
	field := "counterparty_id"
	if role == models.RoleInitiator {
		field = "initiator_id"
	}
	filter := bson.M{
		field:        actorID,
		"state":      models.RequestPending,
		"expires_at": bson.M{"$gt": now},
	}
	return r.find(ctx, filter, 0)
}

func (r *MongoRequestRepo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.BookingRequest, error) {
	filter := bson.M{
		"state":      models.RequestPending,
		"expires_at": bson.M{"$lte": now},
	}
	return r.find(ctx, filter, int64(limit))
}

func (r *MongoRequestRepo) find(ctx context.Context, filter bson.M, limit int64) ([]models.BookingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "expires_at", Value: 1}, {Key: "id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Unavailable("list booking requests", err)
	}
	defer cursor.Close(ctx)

	out := []models.BookingRequest{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Unavailable("decode booking requests", err)
	}
	return out, nil
}

// Transition applies t only if the stored request is still pending and the
// deadline guard holds, in a single FindOneAndUpdate. When nothing matches,
// the current document is read back to report why.
func (r *MongoRequestRepo) Transition(ctx context.Context, id string, t models.RequestTransition) (*models.BookingRequest, error) {
	if err := checkTransition(t); err != nil {
		return nil, err
	}

	filter := bson.M{"id": id, "state": models.RequestPending}
	switch t.To {
	case models.RequestAccepted, models.RequestDeclined:
		filter["expires_at"] = bson.M{"$gt": t.At}
	case models.RequestExpired:
		filter["expires_at"] = bson.M{"$lte": t.At}
	}

	set := bson.M{
		"state":       t.To,
		"resolved_at": t.At,
		"updated_at":  t.At,
	}
	if t.To == models.RequestDeclined {
		if t.DeclineReason != "" {
			set["decline_reason"] = t.DeclineReason
		}
		if len(t.SuggestedDates) > 0 {
			set["suggested_alternative_dates"] = t.SuggestedDates
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.BookingRequest
	err := r.coll.FindOneAndUpdate(opCtx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.Unavailable(fmt.Sprintf("transition booking request to %s", t.To), err)
	}

	current, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if rej := rejection(current, t); rej != nil {
		return nil, rej
	}
	// The guard holds now but did not when the update ran: another writer got there first.
	return nil, apperr.ErrAlreadyResolved
}
