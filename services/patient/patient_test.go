package patient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"clinicdesk/models"
	"clinicdesk/services/storage"
	"clinicdesk/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	patients map[string]models.Patient
	medicals map[string]*models.Medical // by patient id
	media    *memMedia
}

func (m *memRepo) CreateWithMedical(_ context.Context, p *models.Patient, med *models.Medical) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = *p
	cp := *med
	m.medicals[p.ID] = &cp
	return nil
}

func (m *memRepo) Replace(_ context.Context, p *models.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[p.ID]; !ok {
		return utils.NewNotFound("patient", p.ID)
	}
	m.patients[p.ID] = *p
	return nil
}

func (m *memRepo) DeleteCascade(_ context.Context, id string) ([]models.Media, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[id]; !ok {
		return nil, utils.NewNotFound("patient", id)
	}
	var removed []models.Media
	if med, ok := m.medicals[id]; ok {
		for _, mid := range med.Media {
			if v, ok := m.media.items[mid]; ok {
				removed = append(removed, v)
				delete(m.media.items, mid)
			}
		}
		delete(m.medicals, id)
	}
	delete(m.patients, id)
	return removed, nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.patients[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memRepo) GetByIDs(ctx context.Context, ids []string) ([]models.Patient, error) {
	var out []models.Patient
	for _, id := range ids {
		if p, _ := m.GetByID(ctx, id); p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memRepo) Search(_ context.Context, search, gender string) ([]models.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Patient{}
	for _, p := range m.patients {
		if gender != "" && p.Gender != gender {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.FirstName+" "+p.LastName), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memRepo) MatchIDs(context.Context, string) ([]string, error) { return nil, nil }

func (m *memRepo) GetMedical(_ context.Context, patientID string) (*models.Medical, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if med, ok := m.medicals[patientID]; ok {
		cp := *med
		return &cp, nil
	}
	return nil, nil
}

func (m *memRepo) UpdateMedical(_ context.Context, patientID string, patch models.MedicalPatch) (*models.Medical, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	med, ok := m.medicals[patientID]
	if !ok {
		return nil, utils.NewNotFound("medical record", patientID)
	}
	if patch.MedicalHistory != nil {
		med.MedicalHistory = *patch.MedicalHistory
	}
	if patch.MedicalComments != nil {
		med.MedicalComments = *patch.MedicalComments
	}
	cp := *med
	return &cp, nil
}

func (m *memRepo) AddMedicalMedia(_ context.Context, medicalID, mediaID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, med := range m.medicals {
		if med.ID == medicalID {
			med.Media = append(med.Media, mediaID)
			return nil
		}
	}
	return utils.NewNotFound("medical record", medicalID)
}

type memMedia struct {
	items map[string]models.Media
}

func (m *memMedia) Create(_ context.Context, v *models.Media) error {
	m.items[v.ID] = *v
	return nil
}

func (m *memMedia) Delete(_ context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func (m *memMedia) GetByID(_ context.Context, id string) (*models.Media, error) {
	if v, ok := m.items[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memMedia) GetByIDs(_ context.Context, ids []string) ([]models.Media, error) {
	out := []models.Media{}
	for _, id := range ids {
		if v, ok := m.items[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memMedia) ListByApplication(context.Context, string) ([]models.Media, error) {
	return nil, nil
}

func (m *memMedia) DeleteByApplication(context.Context, string) (int64, error) { return 0, nil }

type memObjects struct {
	objects map[string]bool
}

func (m *memObjects) Backend() string { return "memory" }

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (*storage.Object, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return nil, err
	}
	m.objects[key] = true
	return &storage.Object{Key: key, Backend: "memory"}, nil
}

func (m *memObjects) URL(_ context.Context, media models.Media, _ time.Duration) (string, error) {
	return "mem://" + media.ObjectKey, nil
}

func (m *memObjects) Delete(_ context.Context, media models.Media) error {
	delete(m.objects, media.ObjectKey)
	return nil
}

func newService() (*DefaultPatientService, *memRepo, *memObjects) {
	media := &memMedia{items: map[string]models.Media{}}
	repo := &memRepo{patients: map[string]models.Patient{}, medicals: map[string]*models.Medical{}, media: media}
	objects := &memObjects{objects: map[string]bool{}}
	return &DefaultPatientService{Repo: repo, Media: media, Store: objects}, repo, objects
}

func validInput() models.PatientInput {
	return models.PatientInput{
		FirstName:   " Ivan ",
		LastName:    "Petrov",
		Gender:      "Male",
		DateOfBirth: "1985-04-12",
		Telephone:   "+79001234567",
		Email:       "Ivan@Example.com",
	}
}

func TestCreateAddsMedicalRecord(t *testing.T) {
	svc, repo, _ := newService()

	profile, err := svc.Create(context.Background(), validInput())
	require.NoError(t, err)
	assert.Equal(t, "Ivan", profile.FirstName)
	assert.Equal(t, "ivan@example.com", profile.Email)
	require.NotNil(t, profile.Medical)
	assert.Equal(t, profile.ID, profile.Medical.PatientID)
	assert.Contains(t, repo.medicals, profile.ID)
}

func TestCreateValidation(t *testing.T) {
	svc, repo, _ := newService()
	mutations := []func(*models.PatientInput){
		func(in *models.PatientInput) { in.FirstName = "" },
		func(in *models.PatientInput) { in.LastName = " " },
		func(in *models.PatientInput) { in.Telephone = "" },
		func(in *models.PatientInput) { in.Email = "" },
		func(in *models.PatientInput) { in.Gender = "Unknown" },
		func(in *models.PatientInput) { in.DateOfBirth = "12.04.1985" },
	}
	for i, mutate := range mutations {
		in := validInput()
		mutate(&in)
		_, err := svc.Create(context.Background(), in)
		assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err), "case %d", i)
	}
	assert.Empty(t, repo.patients)
}

func TestUpdateAndList(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	other := validInput()
	other.FirstName, other.LastName, other.Gender = "Anna", "Smirnova", "Female"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	in := validInput()
	in.Telephone = "+79990000000"
	updated, err := svc.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "+79990000000", updated.Telephone)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	_, err = svc.Update(ctx, "missing", in)
	assert.True(t, utils.IsNotFound(err))

	women, err := svc.List(ctx, "", "Female")
	require.NoError(t, err)
	require.Len(t, women, 1)
	assert.Equal(t, "Anna", women[0].FirstName)

	found, err := svc.List(ctx, "petr", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = svc.List(ctx, "", "robot")
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))
}

func TestMedicalRecord(t *testing.T) {
	svc, _, _ := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	history := "Hypertension since 2019"
	med, err := svc.UpdateMedical(ctx, created.ID, models.MedicalPatch{MedicalHistory: &history})
	require.NoError(t, err)
	assert.Equal(t, history, med.MedicalHistory)

	_, err = svc.UpdateMedical(ctx, created.ID, models.MedicalPatch{})
	assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err))

	_, err = svc.GetMedical(ctx, "missing")
	assert.True(t, utils.IsNotFound(err))
}

func TestAttachMediaAndCascadeDelete(t *testing.T) {
	svc, repo, objects := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	media, err := svc.AttachMedia(ctx, created.ID, MediaUpload{Filename: "ecg.png", ContentType: "image/png", Size: 3, Body: strings.NewReader("png")})
	require.NoError(t, err)
	assert.Equal(t, created.Medical.ID, media.Medical)
	assert.Len(t, objects.objects, 1)

	list, err := svc.ListMedia(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, media.ID, list[0].ID)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.Empty(t, repo.patients)
	assert.Empty(t, repo.medicals)
	assert.Empty(t, repo.media.items)
	assert.Empty(t, objects.objects)

	assert.True(t, utils.IsNotFound(svc.Delete(ctx, created.ID)))
	_, err = svc.Get(ctx, created.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestAttachMediaWithoutStorage(t *testing.T) {
	svc, _, _ := newService()
	svc.Store = nil
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.AttachMedia(ctx, created.ID, MediaUpload{Filename: "a.pdf", Body: strings.NewReader("x")})
	assert.Equal(t, http.StatusServiceUnavailable, utils.StatusFor(err))
}
