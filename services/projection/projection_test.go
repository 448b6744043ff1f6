package projection

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memAppointments struct {
	mu        sync.Mutex
	items     map[string]models.Appointment
	upsertErr error
	panicOn   bool
}

func newMemAppointments() *memAppointments {
	return &memAppointments{items: map[string]models.Appointment{}}
}

func (m *memAppointments) Upsert(_ context.Context, a *models.Appointment) error {
	if m.panicOn {
		panic("driver bug")
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[a.ID] = *a
	return nil
}

func (m *memAppointments) DeleteByID(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[id]
	delete(m.items, id)
	return ok, nil
}

func (m *memAppointments) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *memAppointments) ListRange(_ context.Context, from, to, doctor string) ([]models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Appointment
	for _, a := range m.items {
		if a.Date >= from && a.Date <= to && (doctor == "" || a.DoctorName == doctor) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAppointments) ListAll(ctx context.Context) ([]models.Appointment, error) {
	return m.ListRange(ctx, "", "9999-99-99", "")
}

func (m *memAppointments) DistinctDoctors(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, a := range m.items {
		if !seen[a.DoctorName] {
			seen[a.DoctorName] = true
			out = append(out, a.DoctorName)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memApplications map[string]*models.Application

func (m memApplications) GetByNumber(_ context.Context, n string) (*models.Application, error) {
	return m[n], nil
}

type memPatients map[string]*models.Patient

func (m memPatients) GetByID(_ context.Context, id string) (*models.Patient, error) { return m[id], nil }

type memDoctors map[string]*models.Doctor

func (m memDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) { return m[id], nil }

type recordingEmitter struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingEmitter) Emit(_ context.Context, name string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

type fixture struct {
	store   *memAppointments
	apps    memApplications
	emitter *recordingEmitter
	sync    *Synchronizer
}

func newFixture() *fixture {
	f := &fixture{
		store:   newMemAppointments(),
		apps:    memApplications{},
		emitter: &recordingEmitter{},
	}
	patients := memPatients{"p1": {ID: "p1", FirstName: "Anna", MiddleName: "M.", LastName: "Ivanova"}}
	doctors := memDoctors{"d1": {ID: "d1", FirstName: "Boris", LastName: "Petrov", Specialty: "Cardiology"}}
	f.sync = NewSynchronizer(f.store, f.apps, patients, doctors, f.emitter, DefaultWindow())
	return f
}

func sampleApp() *models.Application {
	return &models.Application{
		ID:                "uuid-1",
		Number:            "HD-R-001-03/2025-0001",
		PatientID:         "p1",
		DoctorID:          "d1",
		RecordDate:        time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
		Date:              "2025-03-01",
		StartTime:         "09:00",
		EndTime:           "10:00",
		Specialty:         "Cardiology",
		AppointmentMode:   models.ModeOffline,
		AppointmentStatus: models.StatusNew,
	}
}

func TestDeriveFallbacks(t *testing.T) {
	app := &models.Application{
		Number:     "HD-R-002-03/2025-0002",
		RecordDate: time.Date(2025, time.March, 1, 22, 30, 0, 0, time.UTC),
	}
	loc := time.FixedZone("IST", 5*3600+1800)
	appt := Derive(app, nil, nil, Defaults{StartTime: "09:00", EndTime: "10:00", Location: loc})

	assert.Equal(t, UnknownPatient, appt.PatientName)
	assert.Equal(t, UnknownDoctor, appt.DoctorName)
	assert.Equal(t, UnknownSpecialty, appt.Specialty)
	assert.Equal(t, models.ModeOnline, appt.AppointmentMode)
	assert.Equal(t, models.StatusNew, appt.AppointmentStatus)
	assert.Equal(t, "09:00", appt.StartTime)
	assert.Equal(t, "10:00", appt.EndTime)
	assert.Equal(t, "2025-03-02", appt.Date)
}

func TestDeriveUsesDoctorSpecialtyWhenUnset(t *testing.T) {
	app := sampleApp()
	app.Specialty = ""
	appt := Derive(app, nil, &models.Doctor{FirstName: "Boris", LastName: "Petrov", Specialty: "Cardiology"}, DefaultWindow())
	assert.Equal(t, "Cardiology", appt.Specialty)
	assert.Equal(t, "Boris Petrov", appt.DoctorName)
}

func TestOnApplicationCreatedIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := sampleApp()

	require.Nil(t, f.sync.OnApplicationCreated(ctx, app))
	require.Nil(t, f.sync.OnApplicationCreated(ctx, app))

	all, _ := f.store.ListAll(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Anna M. Ivanova", all[0].PatientName)
	assert.Equal(t, "Boris Petrov", all[0].DoctorName)
	assert.Equal(t, []string{models.EventNewAppointment, models.EventNewAppointment}, f.emitter.names)
}

func TestOnApplicationUpdatedRoundTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := sampleApp()
	require.Nil(t, f.sync.OnApplicationCreated(ctx, app))

	app.Specialty = "Neurology"
	app.AppointmentMode = models.ModeOnline
	app.AppointmentStatus = models.StatusInProcess
	app.Date = "2025-03-04"
	app.StartTime, app.EndTime = "14:00", "14:30"
	require.Nil(t, f.sync.OnApplicationUpdated(ctx, app))

	got, err := f.store.GetByID(ctx, app.Number)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Neurology", got.Specialty)
	assert.Equal(t, models.ModeOnline, got.AppointmentMode)
	assert.Equal(t, models.StatusInProcess, got.AppointmentStatus)
	assert.Equal(t, "2025-03-04", got.Date)
	assert.Equal(t, "14:00", got.StartTime)
	assert.Equal(t, "14:30", got.EndTime)
}

func TestOnApplicationUpdatedHealsMissingProjection(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.Nil(t, f.sync.OnApplicationUpdated(ctx, sampleApp()))

	got, _ := f.store.GetByID(ctx, sampleApp().Number)
	assert.NotNil(t, got)
}

func TestMissingPeopleFallBackToUnknownNames(t *testing.T) {
	f := newFixture()
	app := sampleApp()
	app.PatientID, app.DoctorID = "gone", "gone"
	require.Nil(t, f.sync.OnApplicationCreated(context.Background(), app))

	got, _ := f.store.GetByID(context.Background(), app.Number)
	assert.Equal(t, UnknownPatient, got.PatientName)
	assert.Equal(t, UnknownDoctor, got.DoctorName)
}

func TestDeleteThenLookupIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := sampleApp()
	require.Nil(t, f.sync.OnApplicationCreated(ctx, app))
	require.Nil(t, f.sync.OnApplicationDeleted(ctx, app.Number))

	svc := NewAppointmentService(f.store, nil, time.UTC)
	_, err := svc.Get(ctx, app.Number)
	assert.True(t, utils.IsNotFound(err))

	require.Nil(t, f.sync.OnApplicationDeleted(ctx, app.Number), "deleting twice is not an error")
	assert.Equal(t, []string{models.EventNewAppointment, models.EventDeleteAppointment}, f.emitter.names)
}

func TestSyncFailureIsSoft(t *testing.T) {
	f := newFixture()
	f.store.upsertErr = errors.New("projection store unavailable")

	failure := f.sync.OnApplicationCreated(context.Background(), sampleApp())
	require.NotNil(t, failure)
	assert.Equal(t, OpCreate, failure.Op)
	assert.Equal(t, sampleApp().Number, failure.ID)
	assert.Contains(t, failure.Error(), "projection store unavailable")
	assert.Empty(t, f.emitter.names)
}

func TestSyncPanicBecomesFailure(t *testing.T) {
	f := newFixture()
	f.store.panicOn = true

	var failure *utils.SyncFailure
	assert.NotPanics(t, func() {
		failure = f.sync.OnApplicationUpdated(context.Background(), sampleApp())
	})
	require.NotNil(t, failure)
	assert.Equal(t, OpUpdate, failure.Op)
}

func TestReconcile(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	app := sampleApp()
	f.apps[app.Number] = app

	appt, err := f.sync.Reconcile(ctx, app.Number)
	require.NoError(t, err)
	assert.Equal(t, app.Number, appt.ID)

	_, err = f.sync.Reconcile(ctx, "HD-R-404-03/2025-0404")
	assert.True(t, utils.IsNotFound(err))

	f.store.upsertErr = errors.New("down")
	_, err = f.sync.Reconcile(ctx, app.Number)
	assert.Error(t, err)
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, time.February, 14, 12, 0, 0, 0, time.UTC)

	from, to, err := ResolveRange(models.AppointmentQuery{}, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-01", from)
	assert.Equal(t, "2025-02-28", to)

	from, to, err = ResolveRange(models.AppointmentQuery{Date: "2025-03-01", StartDate: "2025-01-01", EndDate: "2025-12-31"}, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", from)
	assert.Equal(t, "2025-03-01", to)

	_, _, err = ResolveRange(models.AppointmentQuery{StartDate: "2025-03-10", EndDate: "2025-03-01"}, now)
	assert.Equal(t, 400, utils.StatusFor(err))

	_, _, err = ResolveRange(models.AppointmentQuery{StartDate: "2025-03-10"}, now)
	assert.Equal(t, 400, utils.StatusFor(err))
}

func TestListDropsInvalidTimes(t *testing.T) {
	store := newMemAppointments()
	store.items["a"] = models.Appointment{ID: "a", DoctorName: "Dr. A", Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00"}
	store.items["b"] = models.Appointment{ID: "b", DoctorName: "Dr. A", Date: "2025-03-01", StartTime: "bad", EndTime: "10:00"}
	store.items["c"] = models.Appointment{ID: "c", DoctorName: "Dr. B", Date: "2025-03-01", StartTime: "11:00", EndTime: "12:00"}
	svc := NewAppointmentService(store, nil, time.UTC)

	appts, err := svc.List(context.Background(), models.AppointmentQuery{Date: "2025-03-01"})
	require.NoError(t, err)
	assert.Len(t, appts, 2)

	appts, err = svc.List(context.Background(), models.AppointmentQuery{Date: "2025-03-01", Doctor: "Dr. B"})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "c", appts[0].ID)

	doctors, err := svc.Doctors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Dr. A", "Dr. B"}, doctors)

	assert.True(t, utils.IsNotFound(svc.Delete(context.Background(), "zzz")))
	assert.NoError(t, svc.Delete(context.Background(), "a"))
}
