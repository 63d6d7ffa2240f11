package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/motolog/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	maintenanceCollection = "maintenance_items"
	countersCollection    = "counters"
)

// ConnectMongo connects to MongoDB and pings it before returning.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo uri is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	// Ping to verify connection
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoCollection stores maintenance records as documents with integer ids.
// Ids come from a counter document so a deleted id is never reused.
type MongoCollection struct {
	Collection *mongo.Collection
	Counters   *mongo.Collection
	client     *mongo.Client
}

// NewMongoCollection uses the maintenance_items and counters collections
// of the named database.
func NewMongoCollection(client *mongo.Client, database string) *MongoCollection {
	db := client.Database(database)
	return &MongoCollection{
		Collection: db.Collection(maintenanceCollection),
		Counters:   db.Collection(countersCollection),
		client:     client,
	}
}

func (c *MongoCollection) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := c.Counters.FindOneAndUpdate(ctx,
		bson.M{"_id": maintenanceCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, err
	}
	return counter.Seq, nil
}

// Insert inserts a maintenance record into the collection.
func (c *MongoCollection) Insert(ctx context.Context, rec models.Maintenance) (int64, error) {
	if c.Collection == nil {
		return 0, fmt.Errorf("%w: mongo collection is nil", models.ErrStorage)
	}
	id, err := c.nextID(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: next id: %v", models.ErrStorage, err)
	}
	rec.ID = id
	if _, err := c.Collection.InsertOne(ctx, rec); err != nil {
		return 0, fmt.Errorf("%w: insert: %v", models.ErrStorage, err)
	}
	return id, nil
}

// FindAll returns every record ordered by id.
func (c *MongoCollection) FindAll(ctx context.Context) ([]models.Maintenance, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("%w: mongo collection is nil", models.ErrStorage)
	}
	cursor, err := c.Collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: find: %v", models.ErrStorage, err)
	}
	defer cursor.Close(ctx)

	items := []models.Maintenance{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", models.ErrStorage, err)
	}
	return items, nil
}

// FindByID finds a maintenance record by its ID.
func (c *MongoCollection) FindByID(ctx context.Context, id int64) (*models.Maintenance, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("%w: mongo collection is nil", models.ErrStorage)
	}
	var rec models.Maintenance
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("%w: find %d: %v", models.ErrStorage, id, err)
	}
	return &rec, nil
}

// Update replaces a maintenance record by its ID.
func (c *MongoCollection) Update(ctx context.Context, id int64, rec models.Maintenance) error {
	if c.Collection == nil {
		return fmt.Errorf("%w: mongo collection is nil", models.ErrStorage)
	}
	rec.ID = id
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": id}, rec)
	if err != nil {
		return fmt.Errorf("%w: replace %d: %v", models.ErrStorage, id, err)
	}
	if result.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete deletes a maintenance record by its ID.
func (c *MongoCollection) Delete(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return fmt.Errorf("%w: mongo collection is nil", models.ErrStorage)
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: delete %d: %v", models.ErrStorage, id, err)
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Close disconnects the client this collection was built from.
func (c *MongoCollection) Close() error {
	if c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
