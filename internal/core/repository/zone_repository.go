package repository

import (
	"context"
	"time"

	"locagent/internal/core/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ZoneRepository stores geofence zones. FindActive returns zones in stored
// (creation) order; evaluation relies on that order for tie-breaking.
type ZoneRepository interface {
	Create(zone *model.GeofenceZone) error
	Update(zone *model.GeofenceZone) error
	Delete(id string) error
	FindByID(id string) (*model.GeofenceZone, error)
	FindAll() ([]*model.GeofenceZone, error)
	FindActive() ([]*model.GeofenceZone, error)
}

type MongoZoneRepository struct {
	collection *mongo.Collection
}

func NewMongoZoneRepository(db *mongo.Database) *MongoZoneRepository {
	return &MongoZoneRepository{
		collection: db.Collection("zones"),
	}
}

func (r *MongoZoneRepository) Create(zone *model.GeofenceZone) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, zone)
	return err
}

func (r *MongoZoneRepository) Update(zone *model.GeofenceZone) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.ReplaceOne(ctx, bson.M{"id": zone.ID}, zone)
	return err
}

func (r *MongoZoneRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"id": id})
	return err
}

func (r *MongoZoneRepository) FindByID(id string) (*model.GeofenceZone, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var zone model.GeofenceZone
	err := r.collection.FindOne(ctx, bson.M{"id": id}).Decode(&zone)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &zone, nil
}

func (r *MongoZoneRepository) FindAll() ([]*model.GeofenceZone, error) {
	return r.find(bson.M{})
}

func (r *MongoZoneRepository) FindActive() ([]*model.GeofenceZone, error) {
	return r.find(bson.M{"enabled": true, "pausetracking": true})
}

func (r *MongoZoneRepository) find(filter bson.M) ([]*model.GeofenceZone, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"createdat": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var zones []*model.GeofenceZone
	if err = cursor.All(ctx, &zones); err != nil {
		return nil, err
	}
	return zones, nil
}
