package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	Save(key, value string) error
	Get(key string) (string, error)
	GetAll() (map[string]string, error)
}

type settingDoc struct {
	Key   string `bson:"key"`
	Value string `bson:"value"`
}

type MongoSettingsRepository struct {
	collection *mongo.Collection
}

func NewMongoSettingsRepository(db *mongo.Database) *MongoSettingsRepository {
	return &MongoSettingsRepository{
		collection: db.Collection("settings"),
	}
}

func (r *MongoSettingsRepository) Save(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{"$set": bson.M{"value": value}},
		opts)
	return err
}

func (r *MongoSettingsRepository) Get(key string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var doc settingDoc
	err := r.collection.FindOne(ctx, bson.M{"key": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}

func (r *MongoSettingsRepository) GetAll() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []settingDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(docs))
	for _, d := range docs {
		out[d.Key] = d.Value
	}
	return out, nil
}
