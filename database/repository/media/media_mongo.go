package mediaRepo

import (
	"context"
	"fmt"
	"time"

	"clinicdesk/database"
	"clinicdesk/models"
	"clinicdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MediaRepository defines methods for attachment metadata access.
type MediaRepository interface {
	Create(ctx context.Context, media *models.Media) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Media, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Media, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.Media, error)
	DeleteByApplication(ctx context.Context, applicationID string) (int64, error)
}

// MongoMediaRepo implements MediaRepository using MongoDB.
type MongoMediaRepo struct {
	coll *mongo.Collection
}

// NewMongoMediaRepo creates a new instance of MediaRepository using MongoDB.
func NewMongoMediaRepo() MediaRepository {
	repo := &MongoMediaRepo{coll: database.Collection("media")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "application", Value: 1}}},
		{Keys: bson.D{{Key: "medical", Value: 1}}},
	}); err != nil {
		utils.GetLogger().Sugar().Warnf("media: failed to create indexes: %v", err)
	}
	return repo
}

// Create inserts a media record.
func (r *MongoMediaRepo) Create(ctx context.Context, media *models.Media) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	media.CreatedAt = time.Now()
	if _, err := r.coll.InsertOne(ctx, media); err != nil {
		return fmt.Errorf("failed to create media: %w", err)
	}
	return nil
}

// Delete removes a media record by id.
func (r *MongoMediaRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete media %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFound("document", id)
	}
	return nil
}

// GetByID returns nil when the media record does not exist.
func (r *MongoMediaRepo) GetByID(ctx context.Context, id string) (*models.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var media models.Media
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&media); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch media %s: %w", id, err)
	}
	return &media, nil
}

func (r *MongoMediaRepo) find(ctx context.Context, filter bson.M) ([]models.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer cursor.Close(ctx)

	items := []models.Media{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}
	return items, nil
}

// GetByIDs loads every media record in ids.
func (r *MongoMediaRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Media, error) {
	if len(ids) == 0 {
		return []models.Media{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

// ListByApplication returns the documents attached to an application.
func (r *MongoMediaRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Media, error) {
	return r.find(ctx, bson.M{"application": applicationID})
}

// DeleteByApplication removes every document attached to an application.
func (r *MongoMediaRepo) DeleteByApplication(ctx context.Context, applicationID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"application": applicationID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete media of application %s: %w", applicationID, err)
	}
	return res.DeletedCount, nil
}
