package applicationRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// buildFilter translates an ApplicationFilter into a Mongo query.
func buildFilter(f models.ApplicationFilter) (bson.M, error) {
	query := bson.M{}

	if f.AppointmentStatus != "" {
		query["appointmentStatus"] = f.AppointmentStatus
	}
	if f.PaymentStatus != "" {
		query["paymentStatus"] = f.PaymentStatus
	}
	if f.DoctorID != "" {
		query["doctor"] = f.DoctorID
	}
	if f.RecordDate != "" {
		// The stored date is already resolved in the clinic timezone.
		if _, err := time.Parse(utils.DateLayout, f.RecordDate); err != nil {
			return nil, utils.NewValidationError("recordDate", "must be YYYY-MM-DD")
		}
		query["date"] = f.RecordDate
	}
	if f.Search != "" {
		or := bson.A{
			bson.M{"id": bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}},
		}
		if len(f.PatientIDs) > 0 {
			or = append(or, bson.M{"patient": bson.M{"$in": f.PatientIDs}})
		}
		query["$or"] = or
	}
	return query, nil
}

// List returns one page of applications, newest first, plus the total match count.
func (r *MongoApplicationRepo) List(ctx context.Context, f models.ApplicationFilter) ([]models.Application, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query, err := buildFilter(f)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count applications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64((f.Page - 1) * f.Limit)).
		SetLimit(int64(f.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	defer cursor.Close(ctx)

	apps := []models.Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, 0, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, total, nil
}

// ListByPatient returns a patient's applications, most recent visit first.
func (r *MongoApplicationRepo) ListByPatient(ctx context.Context, patientID string) ([]models.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "recordDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"patient": patientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications of patient %s: %w", patientID, err)
	}
	defer cursor.Close(ctx)

	apps := []models.Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	return apps, nil
}
