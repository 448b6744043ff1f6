package commentRepo

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

// CommentRepository defines methods for comment data access.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	UpdateText(ctx context.Context, id, text string) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListByApplication(ctx context.Context, applicationID string) ([]models.Comment, error)
	DeleteByApplication(ctx context.Context, applicationID string) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// MongoCommentRepo implements CommentRepository using MongoDB.
type MongoCommentRepo struct {
	coll *mongo.Collection
}

// NewMongoCommentRepo creates a new instance of CommentRepository using MongoDB.
func NewMongoCommentRepo() CommentRepository {
	repo := &MongoCommentRepo{coll: database.Collection("comments")}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := repo.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "application", Value: 1}, {Key: "createdAt", Value: 1}},
	}); err != nil {
		utils.GetLogger().Sugar().Warnf("comments: failed to create indexes: %v", err)
	}
	return repo
}

// Create inserts a new comment.
func (r *MongoCommentRepo) Create(ctx context.Context, comment *models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	comment.CreatedAt, comment.UpdatedAt = now, now
	if _, err := r.coll.InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// UpdateText replaces the comment text and returns the updated comment.
func (r *MongoCommentRepo) UpdateText(ctx context.Context, id, text string) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment models.Comment
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"text": text, "updatedAt": time.Now()}},
		opts,
	).Decode(&comment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFound("comment", id)
		}
		return nil, fmt.Errorf("failed to update comment %s: %w", id, err)
	}
	return &comment, nil
}

// Delete removes a comment by id.
func (r *MongoCommentRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete comment %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFound("comment", id)
	}
	return nil
}

// GetByID returns nil when the comment does not exist.
func (r *MongoCommentRepo) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var comment models.Comment
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch comment %s: %w", id, err)
	}
	return &comment, nil
}

// ListByApplication returns an application's thread, oldest first.
func (r *MongoCommentRepo) ListByApplication(ctx context.Context, applicationID string) ([]models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"application": applicationID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	return comments, nil
}

// DeleteByApplication removes an application's whole thread.
func (r *MongoCommentRepo) DeleteByApplication(ctx context.Context, applicationID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{"application": applicationID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments of application %s: %w", applicationID, err)
	}
	return res.DeletedCount, nil
}

// DeleteAll removes every comment. Administrative reset only.
func (r *MongoCommentRepo) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete comments: %w", err)
	}
	return res.DeletedCount, nil
}
