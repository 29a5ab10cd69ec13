package db

import (
	"context"
	"fmt"
	"time"

	"villas/notify"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client                  *mongo.Client
	NotificationsCollection *mongo.Collection
)

// Connect opens the Mongo client and resolves the collections.
func Connect(ctx context.Context, uri, database string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// nested notification payloads decode as maps so they re-encode as JSON objects
	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	Client = client
	NotificationsCollection = client.Database(database).Collection("notifications")
	return nil
}

// Disconnect closes the client if one is open.
func Disconnect(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

// Archive keeps a copy of every notification in Mongo, keyed by id.
type Archive struct {
	coll *mongo.Collection
}

func NewArchive(coll *mongo.Collection) *Archive {
	return &Archive{coll: coll}
}

// Notified upserts n.
func (a *Archive) Notified(ctx context.Context, n notify.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := a.coll.ReplaceOne(ctx, bson.M{"_id": n.ID}, n, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("archive %s: %w", n.ID, err)
	}
	return nil
}

func (a *Archive) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := a.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// Load returns up to limit notifications, newest first.
func (a *Archive) Load(ctx context.Context, limit int) ([]notify.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := a.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cur.Close(ctx)

	var list []notify.Notification
	if err := cur.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return list, nil
}
