package repository

import (
	"context"
	"time"

	"locagent/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProfileRepository stores condition profiles. FindEnabled returns enabled
// profiles sorted by priority descending, the order evaluation matches in.
type ProfileRepository interface {
	Create(profile *model.Profile) error
	Update(profile *model.Profile) error
	Delete(id string) error
	FindByID(id string) (*model.Profile, error)
	FindAll() ([]*model.Profile, error)
	FindEnabled() ([]*model.Profile, error)
}

type MongoProfileRepository struct {
	collection *mongo.Collection
}

func NewMongoProfileRepository(db *mongo.Database) *MongoProfileRepository {
	return &MongoProfileRepository{
		collection: db.Collection("profiles"),
	}
}

func (r *MongoProfileRepository) Create(profile *model.Profile) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, profile)
	return err
}

func (r *MongoProfileRepository) Update(profile *model.Profile) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": profile.ID}, profile)
	return err
}

func (r *MongoProfileRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoProfileRepository) FindByID(id string) (*model.Profile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var profile model.Profile
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *MongoProfileRepository) FindAll() ([]*model.Profile, error) {
	return r.find(bson.M{}, bson.M{"createdat": 1})
}

func (r *MongoProfileRepository) FindEnabled() ([]*model.Profile, error) {
	return r.find(bson.M{"enabled": true}, bson.M{"priority": -1})
}

func (r *MongoProfileRepository) find(filter, sort bson.M) ([]*model.Profile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(sort)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []*model.Profile
	if err = cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
