package counterRepo

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/database"
	"clinicdesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCounterRepo implements CounterRepository with one document per domain.
type MongoCounterRepo struct {
	coll *mongo.Collection
}

// NewMongoCounterRepo creates a new instance of CounterRepository using MongoDB.
func NewMongoCounterRepo() CounterRepository {
	return &MongoCounterRepo{coll: database.Collection("counters")}
}

// incrementPipeline builds a single-stage update. All expressions in one $set
// stage read the pre-update document, so the month comparison sees the stored
// monthKey.
func incrementPipeline(monthKey string, wrap int) mongo.Pipeline {
	sameMonth := bson.D{{Key: "$eq", Value: bson.A{"$monthKey", monthKey}}}

	next := bson.D{{Key: "$add", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{"$monthlyCount", 0}}},
		1,
	}}}
	if wrap > 0 {
		next = bson.D{{Key: "$let", Value: bson.D{
			{Key: "vars", Value: bson.D{{Key: "n", Value: bson.D{{Key: "$mod", Value: bson.A{next, wrap}}}}}},
			{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$$n", 0}}},
				1,
				"$$n",
			}}}},
		}}}
	}

	return mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "monthlyCount", Value: bson.D{{Key: "$cond", Value: bson.A{sameMonth, next, 1}}}},
			{Key: "overallCount", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$overallCount", 0}}},
				1,
			}}}},
			{Key: "monthKey", Value: bson.D{{Key: "$literal", Value: monthKey}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
}

// Increment performs the read-modify-write as one FindOneAndUpdate with upsert.
func (r *MongoCounterRepo) Increment(ctx context.Context, domain, monthKey string, wrap int) (*models.Counter, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var counter models.Counter
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": domain}, incrementPipeline(monthKey, wrap), opts).Decode(&counter)
	if mongo.IsDuplicateKeyError(err) {
		// Two first-ever upserts raced on _id; the loser retries as a plain update.
		err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": domain}, incrementPipeline(monthKey, wrap), opts).Decode(&counter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to increment %s counter: %w", domain, err)
	}
	return &counter, nil
}

// DeleteAll removes every counter document.
func (r *MongoCounterRepo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete counters: %w", err)
	}
	return res.DeletedCount, nil
}
