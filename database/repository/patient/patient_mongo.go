package patientRepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"clinicdesk/database"
	"clinicdesk/models"
	"clinicdesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPatientRepo implements PatientRepository using MongoDB.
type MongoPatientRepo struct {
	client   *mongo.Client
	patients *mongo.Collection
	medicals *mongo.Collection
	media    *mongo.Collection
}

// NewMongoPatientRepo creates a new instance of PatientRepository using MongoDB.
func NewMongoPatientRepo() PatientRepository {
	repo := &MongoPatientRepo{
		client:   database.MongoClient,
		patients: database.Collection("patients"),
		medicals: database.Collection("medicals"),
		media:    database.Collection("media"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("patients: failed to create indexes: %v", err)
	}
	return repo
}

func (r *MongoPatientRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.patients.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}
	if _, err := r.medicals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "patientId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create medical indexes: %w", err)
	}
	return nil
}

// CreateWithMedical inserts both documents or neither.
func (r *MongoPatientRepo) CreateWithMedical(ctx context.Context, patient *models.Patient, medical *models.Medical) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now()
	patient.CreatedAt, patient.UpdatedAt = now, now
	medical.CreatedAt, medical.UpdatedAt = now, now
	medical.PatientID = patient.ID

	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.patients.InsertOne(sc, patient); err != nil {
			return fmt.Errorf("failed to insert patient: %w", err)
		}
		if _, err := r.medicals.InsertOne(sc, medical); err != nil {
			return fmt.Errorf("failed to insert medical record: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// Replace overwrites an existing patient document.
func (r *MongoPatientRepo) Replace(ctx context.Context, patient *models.Patient) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	patient.UpdatedAt = time.Now()
	result, err := r.patients.ReplaceOne(ctx, bson.M{"_id": patient.ID}, patient)
	if err != nil {
		return fmt.Errorf("failed to update patient %s: %w", patient.ID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFound("patient", patient.ID)
	}
	return nil
}

// DeleteCascade removes the patient's media, medical record and the patient itself.
func (r *MongoPatientRepo) DeleteCascade(ctx context.Context, id string) ([]models.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	var removed []models.Media
	err := database.WithTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		removed = nil

		var medical models.Medical
		err := r.medicals.FindOne(sc, bson.M{"patientId": id}).Decode(&medical)
		switch {
		case err == mongo.ErrNoDocuments:
		case err != nil:
			return fmt.Errorf("failed to load medical record: %w", err)
		default:
			if len(medical.Media) > 0 {
				cursor, err := r.media.Find(sc, bson.M{"_id": bson.M{"$in": medical.Media}})
				if err != nil {
					return fmt.Errorf("failed to load media: %w", err)
				}
				if err := cursor.All(sc, &removed); err != nil {
					return fmt.Errorf("failed to decode media: %w", err)
				}
				if _, err := r.media.DeleteMany(sc, bson.M{"_id": bson.M{"$in": medical.Media}}); err != nil {
					return fmt.Errorf("failed to delete media: %w", err)
				}
			}
			if _, err := r.medicals.DeleteOne(sc, bson.M{"_id": medical.ID}); err != nil {
				return fmt.Errorf("failed to delete medical record: %w", err)
			}
		}

		result, err := r.patients.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to delete patient: %w", err)
		}
		if result.DeletedCount == 0 {
			return utils.NewNotFound("patient", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// GetByID returns nil when the patient does not exist.
func (r *MongoPatientRepo) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var patient models.Patient
	if err := r.patients.FindOne(ctx, bson.M{"_id": id}).Decode(&patient); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch patient %s: %w", id, err)
	}
	return &patient, nil
}

func (r *MongoPatientRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.patients.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := []models.Patient{}
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

// GetByIDs loads every patient in ids.
func (r *MongoPatientRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Patient, error) {
	if len(ids) == 0 {
		return []models.Patient{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func searchFilter(search string) bson.M {
	rx := bson.M{"$regex": regexp.QuoteMeta(search), "$options": "i"}
	return bson.M{"$or": bson.A{
		bson.M{"firstName": rx},
		bson.M{"middleName": rx},
		bson.M{"lastName": rx},
		bson.M{"telephone": rx},
		bson.M{"email": rx},
	}}
}

// Search lists patients sorted by last then first name.
func (r *MongoPatientRepo) Search(ctx context.Context, search, gender string) ([]models.Patient, error) {
	filter := bson.M{}
	if search != "" {
		filter = searchFilter(search)
	}
	if gender != "" {
		filter["gender"] = gender
	}
	opts := options.Find().SetSort(bson.D{{Key: "lastName", Value: 1}, {Key: "firstName", Value: 1}})
	return r.find(ctx, filter, opts)
}

// MatchIDs returns the ids of patients matching search.
func (r *MongoPatientRepo) MatchIDs(ctx context.Context, search string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	patients, err := r.find(ctx, searchFilter(search), opts)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(patients))
	for _, p := range patients {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

// GetMedical returns nil when the patient has no medical record.
func (r *MongoPatientRepo) GetMedical(ctx context.Context, patientID string) (*models.Medical, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var medical models.Medical
	if err := r.medicals.FindOne(ctx, bson.M{"patientId": patientID}).Decode(&medical); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch medical record of patient %s: %w", patientID, err)
	}
	return &medical, nil
}

// UpdateMedical applies the non-nil fields of patch.
func (r *MongoPatientRepo) UpdateMedical(ctx context.Context, patientID string, patch models.MedicalPatch) (*models.Medical, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	set := bson.M{"updatedAt": time.Now()}
	if patch.MedicalHistory != nil {
		set["medicalHistory"] = *patch.MedicalHistory
	}
	if patch.MedicalComments != nil {
		set["medicalComments"] = *patch.MedicalComments
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var medical models.Medical
	err := r.medicals.FindOneAndUpdate(ctx, bson.M{"patientId": patientID}, bson.M{"$set": set}, opts).Decode(&medical)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, utils.NewNotFound("medical record", patientID)
		}
		return nil, fmt.Errorf("failed to update medical record of patient %s: %w", patientID, err)
	}
	return &medical, nil
}

// AddMedicalMedia links a media record to a medical record.
func (r *MongoPatientRepo) AddMedicalMedia(ctx context.Context, medicalID, mediaID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.medicals.UpdateOne(ctx,
		bson.M{"_id": medicalID},
		bson.M{"$addToSet": bson.M{"media": mediaID}, "$set": bson.M{"updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to link media to medical record %s: %w", medicalID, err)
	}
	if result.MatchedCount == 0 {
		return utils.NewNotFound("medical record", medicalID)
	}
	return nil
}
