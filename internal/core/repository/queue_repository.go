package repository

import (
	"context"
	"time"

	"locagent/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QueueRepository is the durable delivery queue. DequeuePage returns items
// oldest-first without removing them; the sync engine removes succeeded and
// evicted items explicitly via RemoveBatch.
type QueueRepository interface {
	Enqueue(item *model.QueueItem) error
	DequeuePage(limit, offset int) ([]*model.QueueItem, error)
	RemoveBatch(ids []string) error
	IncrementRetry(id, lastError string) error
	CountQueued() (int64, error)
}

type MongoQueueRepository struct {
	collection *mongo.Collection
}

func NewMongoQueueRepository(db *mongo.Database) *MongoQueueRepository {
	return &MongoQueueRepository{
		collection: db.Collection("delivery_queue"),
	}
}

func (r *MongoQueueRepository) Enqueue(item *model.QueueItem) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, item)
	return err
}

func (r *MongoQueueRepository) DequeuePage(limit, offset int) ([]*model.QueueItem, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.M{"createdat": 1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var items []*model.QueueItem
	if err = cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *MongoQueueRepository) RemoveBatch(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{"id": bson.M{"$in": ids}})
	return err
}

func (r *MongoQueueRepository) IncrementRetry(id, lastError string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{
			"$inc": bson.M{"retrycount": 1},
			"$set": bson.M{"lasterror": lastError},
		})
	return err
}

func (r *MongoQueueRepository) CountQueued() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{})
}
