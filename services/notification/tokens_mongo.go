package notification

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTokenDirectory reads device tokens from the "accounts" collection,
// which is owned by the account service.
type MongoTokenDirectory struct {
	coll *mongo.Collection
}

func NewMongoTokenDirectory(db *mongo.Database) *MongoTokenDirectory {
	return &MongoTokenDirectory{coll: db.Collection("accounts")}
}

func (d *MongoTokenDirectory) FCMToken(ctx context.Context, actorID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var doc struct {
		FCMToken string `bson:"fcm_token"`
	}
	opts := options.FindOne().SetProjection(bson.M{"fcm_token": 1})
	if err := d.coll.FindOne(ctx, bson.M{"id": actorID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", nil
		}
		return "", err
	}
	return doc.FCMToken, nil
}
