package applicationRepo

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

// MongoApplicationRepo implements ApplicationRepository using MongoDB.
type MongoApplicationRepo struct {
	coll *mongo.Collection
}

// NewMongoApplicationRepo creates a new instance of ApplicationRepository using MongoDB.
func NewMongoApplicationRepo() ApplicationRepository {
	repo := &MongoApplicationRepo{coll: database.Collection("applications")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("applications: failed to create indexes: %v", err)
	}
	return repo
}

// ensureIndexes creates indexes for fields frequently used in queries.
func (r *MongoApplicationRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "patient", Value: 1}, {Key: "recordDate", Value: -1}}},
		{Keys: bson.D{{Key: "doctor", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Create inserts a new application document.
func (r *MongoApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now()
	app.CreatedAt = now
	app.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, app); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &utils.DuplicateIDError{Domain: "application", ID: app.Number}
		}
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

// Replace overwrites an existing application document.
func (r *MongoApplicationRepo) Replace(ctx context.Context, app *models.Application) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	app.UpdatedAt = time.Now()
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": app.ID}, app)
	if err != nil {
		return fmt.Errorf("failed to update application %s: %w", app.ID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFound("application", app.ID)
	}
	return nil
}

// Delete removes an application document by its internal id.
func (r *MongoApplicationRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete application %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return utils.NewNotFound("application", id)
	}
	return nil
}

func (r *MongoApplicationRepo) findOne(ctx context.Context, filter bson.M) (*models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var app models.Application
	if err := r.coll.FindOne(ctx, filter).Decode(&app); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch application: %w", err)
	}
	return &app, nil
}

// GetByID retrieves an application by its internal id.
func (r *MongoApplicationRepo) GetByID(ctx context.Context, id string) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByNumber retrieves an application by its human-readable id.
func (r *MongoApplicationRepo) GetByNumber(ctx context.Context, number string) (*models.Application, error) {
	return r.findOne(ctx, bson.M{"id": number})
}

// ExistsByNumber reports whether the human-readable id is already used.
func (r *MongoApplicationRepo) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"id": number}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check application id %s: %w", number, err)
	}
	return n > 0, nil
}

func (r *MongoApplicationRepo) pushTo(ctx context.Context, id, field, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s of application %s: %w", field, id, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFound("application", id)
	}
	return nil
}

// AddComment links a comment to the application's thread.
func (r *MongoApplicationRepo) AddComment(ctx context.Context, id, commentID string) error {
	return r.pushTo(ctx, id, "previousComments", commentID)
}

// RemoveComment unlinks a comment from whichever application holds it.
func (r *MongoApplicationRepo) RemoveComment(ctx context.Context, commentID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateMany(ctx,
		bson.M{"previousComments": commentID},
		bson.M{"$pull": bson.M{"previousComments": commentID}},
	)
	if err != nil {
		return fmt.Errorf("failed to unlink comment %s: %w", commentID, err)
	}
	return nil
}

// AddDocument links a media record to the application.
func (r *MongoApplicationRepo) AddDocument(ctx context.Context, id, mediaID string) error {
	return r.pushTo(ctx, id, "documents", mediaID)
}

// RemoveDocument unlinks a media record from the application.
func (r *MongoApplicationRepo) RemoveDocument(ctx context.Context, id, mediaID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"documents": mediaID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to unlink document %s: %w", mediaID, err)
	}
	return nil
}

// AddPayment links an invoice to the application.
func (r *MongoApplicationRepo) AddPayment(ctx context.Context, id, paymentID string) error {
	return r.pushTo(ctx, id, "payments", paymentID)
}

// SetPaymentStatus updates the application's payment status only.
func (r *MongoApplicationRepo) SetPaymentStatus(ctx context.Context, id, status string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"paymentStatus": status, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to set payment status of application %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFound("application", id)
	}
	return nil
}
