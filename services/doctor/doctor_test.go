package doctor

import (
	"context"
	"net/http"
	"sort"
	"testing"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDoctors map[string]models.Doctor

func (m memDoctors) Create(_ context.Context, d *models.Doctor) error {
	m[d.ID] = *d
	return nil
}

func (m memDoctors) Replace(_ context.Context, d *models.Doctor) error {
	if _, ok := m[d.ID]; !ok {
		return utils.NewNotFound("doctor", d.ID)
	}
	m[d.ID] = *d
	return nil
}

func (m memDoctors) Delete(_ context.Context, id string) error {
	if _, ok := m[id]; !ok {
		return utils.NewNotFound("doctor", id)
	}
	delete(m, id)
	return nil
}

func (m memDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	if d, ok := m[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (m memDoctors) GetByIDs(ctx context.Context, ids []string) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, id := range ids {
		if d, ok := m[id]; ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m memDoctors) List(context.Context) ([]models.Doctor, error) {
	out := make([]models.Doctor, 0, len(m))
	for _, d := range m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastName < out[j].LastName })
	return out, nil
}

func fee(v float64) *float64 { return &v }

func input() models.DoctorInput {
	return models.DoctorInput{
		FirstName:   "Olga",
		MiddleName:  "S.",
		LastName:    "Ivanova",
		Specialty:   "Cardiology",
		ServiceType: []string{models.ModeOnline, models.ModeOffline, models.ModeOnline},
		Fees:        models.Fees{Amount: fee(1500)},
	}
}

func TestCreateDefaultsAndDedupes(t *testing.T) {
	svc := &DefaultDoctorService{Repo: memDoctors{}}

	d, err := svc.Create(context.Background(), input())
	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, []string{models.ModeOnline, models.ModeOffline}, d.ServiceType)
	assert.Equal(t, models.CurrencyRUB, d.Fees.Currency)
}

func TestValidation(t *testing.T) {
	svc := &DefaultDoctorService{Repo: memDoctors{}}
	mutations := []func(*models.DoctorInput){
		func(in *models.DoctorInput) { in.FirstName = "" },
		func(in *models.DoctorInput) { in.Specialty = " " },
		func(in *models.DoctorInput) { in.ServiceType = nil },
		func(in *models.DoctorInput) { in.ServiceType = []string{"Home visit"} },
		func(in *models.DoctorInput) { in.Fees.Currency = "USD" },
		func(in *models.DoctorInput) { in.Fees.Amount = fee(-1) },
	}
	for i, mutate := range mutations {
		in := input()
		mutate(&in)
		_, err := svc.Create(context.Background(), in)
		assert.Equal(t, http.StatusBadRequest, utils.StatusFor(err), "case %d", i)
	}
}

func TestCrudAndFindByName(t *testing.T) {
	repo := memDoctors{}
	svc := &DefaultDoctorService{Repo: repo}
	ctx := context.Background()

	d, err := svc.Create(ctx, input())
	require.NoError(t, err)

	found, err := svc.FindByName(ctx, "  olga s.   IVANOVA ")
	require.NoError(t, err)
	assert.Equal(t, d.ID, found.ID)

	_, err = svc.FindByName(ctx, "Dr. Nobody")
	assert.True(t, utils.IsNotFound(err))

	in := input()
	in.Specialty = "Neurology"
	in.Fees.Currency = models.CurrencyEUR
	updated, err := svc.Update(ctx, d.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Neurology", updated.Specialty)
	assert.Equal(t, models.CurrencyEUR, repo[d.ID].Fees.Currency)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(ctx, d.ID))
	_, err = svc.Get(ctx, d.ID)
	assert.True(t, utils.IsNotFound(err))
	assert.True(t, utils.IsNotFound(svc.Delete(ctx, d.ID)))
}
