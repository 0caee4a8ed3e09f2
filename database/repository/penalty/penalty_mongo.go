package penaltyRepo

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

// MongoPenaltyRepo implements PenaltyRepository using MongoDB.
type MongoPenaltyRepo struct {
	penalties *mongo.Collection
	freezes   *mongo.Collection
}

func NewMongoPenaltyRepo(db *mongo.Database) (*MongoPenaltyRepo, error) {
	repo := &MongoPenaltyRepo{
		penalties: db.Collection("cancellation_penalties"),
		freezes:   db.Collection("account_freezes"),
	}
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MongoPenaltyRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.penalties.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
		{Keys: bson.D{{Key: "cleaner_id", Value: 1}, {Key: "occurred_at", Value: -1}}, Options: options.Index().SetName("cleaner_occurred_idx")},
		{Keys: bson.D{{Key: "cleaner_id", Value: 1}, {Key: "appointment_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_cleaner_appointment")},
	}); err != nil {
		return fmt.Errorf("failed to create penalty indexes: %w", err)
	}
	if _, err := r.freezes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "cleaner_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_cleaner"),
	}); err != nil {
		return fmt.Errorf("failed to create freeze indexes: %w", err)
	}
	return nil
}

func (r *MongoPenaltyRepo) Insert(ctx context.Context, rec *models.CancellationPenaltyRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.penalties.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicatePenalty
		}
		return apperr.Unavailable("record cancellation penalty", err)
	}
	return nil
}

func (r *MongoPenaltyRepo) GetByAppointment(ctx context.Context, cleanerID, appointmentID string) (*models.CancellationPenaltyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec models.CancellationPenaltyRecord
	err := r.penalties.FindOne(ctx, bson.M{"cleaner_id": cleanerID, "appointment_id": appointmentID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Unavailable("fetch cancellation penalty", err)
	}
	return &rec, nil
}

func (r *MongoPenaltyRepo) CountSince(ctx context.Context, cleanerID string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.penalties.CountDocuments(ctx, bson.M{
		"cleaner_id":  cleanerID,
		"occurred_at": bson.M{"$gte": since},
	})
	if err != nil {
		return 0, apperr.Unavailable("count cancellation penalties", err)
	}
	return int(n), nil
}

func (r *MongoPenaltyRepo) ListByCleaner(ctx context.Context, cleanerID string) ([]models.CancellationPenaltyRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	cursor, err := r.penalties.Find(ctx, bson.M{"cleaner_id": cleanerID}, opts)
	if err != nil {
		return nil, apperr.Unavailable("list cancellation penalties", err)
	}
	defer cursor.Close(ctx)

	out := []models.CancellationPenaltyRecord{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, apperr.Unavailable("decode cancellation penalties", err)
	}
	return out, nil
}

// MarkFrozen upserts with $setOnInsert so only the first caller creates the marker.
func (r *MongoPenaltyRepo) MarkFrozen(ctx context.Context, freeze models.AccountFreeze) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.freezes.UpdateOne(ctx,
		bson.M{"cleaner_id": freeze.CleanerID},
		bson.M{"$setOnInsert": freeze},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, apperr.Unavailable("freeze cleaner account", err)
	}
	return res.UpsertedCount == 1, nil
}

func (r *MongoPenaltyRepo) GetFreeze(ctx context.Context, cleanerID string) (*models.AccountFreeze, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var f models.AccountFreeze
	if err := r.freezes.FindOne(ctx, bson.M{"cleaner_id": cleanerID}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, apperr.Unavailable("fetch account freeze", err)
	}
	return &f, nil
}
