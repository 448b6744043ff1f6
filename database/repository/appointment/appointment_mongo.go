package appointmentRepo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clinicdesk/database"
	"clinicdesk/models"
	"clinicdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentRepo implements AppointmentRepository using MongoDB.
type MongoAppointmentRepo struct {
	coll *mongo.Collection
}

// NewMongoAppointmentRepo creates a new instance of AppointmentRepository using MongoDB.
func NewMongoAppointmentRepo() AppointmentRepository {
	repo := &MongoAppointmentRepo{coll: database.Collection("appointments")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("appointments: failed to create indexes: %v", err)
	}
	return repo
}

func (r *MongoAppointmentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "doctorName", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Upsert replaces the projection with the same id or inserts it.
func (r *MongoAppointmentRepo) Upsert(ctx context.Context, appt *models.Appointment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	appt.UpdatedAt = time.Now()
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": appt.ID}, appt, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert appointment %s: %w", appt.ID, err)
	}
	return nil
}

// DeleteByID removes the projection with the given id, if any.
func (r *MongoAppointmentRepo) DeleteByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete appointment %s: %w", id, err)
	}
	return result.DeletedCount > 0, nil
}

// GetByID returns nil when no projection exists.
func (r *MongoAppointmentRepo) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var appt models.Appointment
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&appt); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch appointment %s: %w", id, err)
	}
	return &appt, nil
}

func (r *MongoAppointmentRepo) find(ctx context.Context, filter bson.M) ([]models.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "startTime", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appts := []models.Appointment{}
	if err := cursor.All(ctx, &appts); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appts, nil
}

// ListRange relies on YYYY-MM-DD strings sorting chronologically.
func (r *MongoAppointmentRepo) ListRange(ctx context.Context, from, to, doctor string) ([]models.Appointment, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	if doctor != "" {
		filter["doctorName"] = doctor
	}
	return r.find(ctx, filter)
}

// ListByOwnerAndDate returns one doctor's bookings for one day.
func (r *MongoAppointmentRepo) ListByOwnerAndDate(ctx context.Context, doctor, date string) ([]models.Appointment, error) {
	return r.find(ctx, bson.M{"doctorName": doctor, "date": date})
}

// ListAll returns every projection.
func (r *MongoAppointmentRepo) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return r.find(ctx, bson.M{})
}

// DistinctDoctors returns the sorted set of doctor names with appointments.
func (r *MongoAppointmentRepo) DistinctDoctors(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	values, err := r.coll.Distinct(ctx, "doctorName", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list doctor names: %w", err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names, nil
}
