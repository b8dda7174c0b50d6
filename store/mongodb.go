package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbaliyan/evtrack"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
MongoDB Schema:

Collection: evtrack_reports

Document structure:
{
    "_id": string (report ID),
    "name": string (tracker name),
    "taken_at": ISODate,
    "objects": [
        {"id": int64, "type": string, "events": [{"name": string, "handlers": int}]}
    ]
}

Indexes:
db.evtrack_reports.createIndex({ "taken_at": -1 })
db.evtrack_reports.createIndex({ "name": 1, "taken_at": -1 })
*/

// DefaultMongoCollection is the collection used by NewMongoStore.
const DefaultMongoCollection = "evtrack_reports"

// MongoStore is a MongoDB-based report store
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates a new MongoDB report store
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		collection: db.Collection(DefaultMongoCollection),
	}
}

// WithCollection sets a custom collection name
func (s *MongoStore) WithCollection(name string) *MongoStore {
	s.collection = s.collection.Database().Collection(name)
	return s
}

// Collection returns the underlying MongoDB collection
func (s *MongoStore) Collection() *mongo.Collection {
	return s.collection
}

// Indexes returns the indexes used by List and DeleteOlderThan.
//
// Example:
//
//	_, err := collection.Indexes().CreateMany(ctx, store.Indexes())
func (s *MongoStore) Indexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "taken_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "name", Value: 1},
				{Key: "taken_at", Value: -1},
			},
		},
	}
}

// EnsureIndexes creates the required indexes for the report collection
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, s.Indexes())
	return err
}

// Save creates or replaces a report
func (s *MongoStore) Save(ctx context.Context, report *evtrack.Report) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": report.ID},
		report,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}

// Get retrieves a report by ID
func (s *MongoStore) Get(ctx context.Context, id string) (*evtrack.Report, error) {
	var r evtrack.Report
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("find: %w", err)
	}
	return &r, nil
}

// List returns reports matching the filter, newest first
func (s *MongoStore) List(ctx context.Context, filter Filter) ([]*evtrack.Report, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "taken_at", Value: -1}}).
		SetLimit(int64(filter.EffectiveLimit()))

	cursor, err := s.collection.Find(ctx, buildMongoFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer cursor.Close(ctx)

	var reports []*evtrack.Report
	for cursor.Next(ctx) {
		var r evtrack.Report
		if err := cursor.Decode(&r); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
		reports = append(reports, &r)
	}
	return reports, cursor.Err()
}

// buildMongoFilter creates a MongoDB filter from Filter
func buildMongoFilter(filter Filter) bson.M {
	mongoFilter := bson.M{}

	if filter.Name != "" {
		mongoFilter["name"] = filter.Name
	}

	takenAt := bson.M{}
	if !filter.StartTime.IsZero() {
		takenAt["$gte"] = filter.StartTime
	}
	if !filter.EndTime.IsZero() {
		takenAt["$lt"] = filter.EndTime
	}
	if len(takenAt) > 0 {
		mongoFilter["taken_at"] = takenAt
	}

	return mongoFilter
}

// DeleteOlderThan removes reports taken before now-age
func (s *MongoStore) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().Add(-age)
	result, err := s.collection.DeleteMany(ctx, bson.M{
		"taken_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return result.DeletedCount, nil
}

// Compile-time check that MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
