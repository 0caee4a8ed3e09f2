// Package activation finalizes the appointment behind an accepted booking
// request. The appointment record itself is owned by the scheduling side.
package activation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleanly/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrAppointmentNotFound is returned when no appointment has the given id.
var ErrAppointmentNotFound = errors.New("appointment not found")

// Activator finalizes an appointment once its booking request is accepted.
type Activator interface {
	Activate(ctx context.Context, appointmentID string) error
}

// MongoActivator flips the appointment document to "active".
type MongoActivator struct {
	coll  *mongo.Collection
	clock utils.Clock
}

func NewMongoActivator(db *mongo.Database, clock utils.Clock) *MongoActivator {
	return &MongoActivator{coll: db.Collection("appointments"), clock: clock}
}

// Activate is idempotent: an already active appointment is left as is.
func (a *MongoActivator) Activate(ctx context.Context, appointmentID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := a.clock.Now()
	res, err := a.coll.UpdateOne(ctx,
		bson.M{"id": appointmentID},
		bson.M{
			"$set": bson.M{
				"status":     "active",
				"updated_at": now,
			},
			"$min": bson.M{"activated_at": now},
		},
	)
	if err != nil {
		return fmt.Errorf("activate appointment %s: %w", appointmentID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("activate appointment %s: %w", appointmentID, ErrAppointmentNotFound)
	}
	return nil
}

// NoopActivator accepts every appointment; used with the memory storage driver.
type NoopActivator struct{}

func (NoopActivator) Activate(context.Context, string) error { return nil }
