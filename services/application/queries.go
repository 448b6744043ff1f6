package application

import (
	"context"
	"strings"

	"clinicdesk/models"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Get returns the populated view of one application, by internal id or number.
func (s *DefaultApplicationService) Get(ctx context.Context, ref string) (*models.ApplicationView, error) {
	app, err := s.load(ctx, ref)
	if err != nil {
		return nil, err
	}
	views, err := s.populate(ctx, []models.Application{*app})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns one page of applications, newest first. Search matches the
// application number or the patient's name, phone and email.
func (s *DefaultApplicationService) List(ctx context.Context, filter models.ApplicationFilter) (*models.ApplicationPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	switch {
	case filter.Limit < 1:
		filter.Limit = defaultPageSize
	case filter.Limit > maxPageSize:
		filter.Limit = maxPageSize
	}
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.Search != "" {
		ids, err := s.Patients.MatchIDs(ctx, filter.Search)
		if err != nil {
			return nil, errors.Wrap(err, "search patients")
		}
		filter.PatientIDs = ids
	}

	apps, total, err := s.Repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "list applications")
	}
	views, err := s.populate(ctx, apps)
	if err != nil {
		return nil, err
	}

	pages := total / int64(filter.Limit)
	if total%int64(filter.Limit) != 0 {
		pages++
	}
	return &models.ApplicationPage{
		Applications: views,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
		TotalPages:   pages,
	}, nil
}

// History lists a patient's applications, most recent visit first.
func (s *DefaultApplicationService) History(ctx context.Context, patientID string) ([]models.ApplicationView, error) {
	apps, err := s.Repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, errors.Wrapf(err, "load history of patient %s", patientID)
	}
	return s.populate(ctx, apps)
}

// populate attaches patient and doctor summaries with one lookup per collection.
func (s *DefaultApplicationService) populate(ctx context.Context, apps []models.Application) ([]models.ApplicationView, error) {
	if len(apps) == 0 {
		return []models.ApplicationView{}, nil
	}

	patientIDs := lo.Uniq(lo.Map(apps, func(a models.Application, _ int) string { return a.PatientID }))
	doctorIDs := lo.Uniq(lo.Map(apps, func(a models.Application, _ int) string { return a.DoctorID }))

	patients, err := s.Patients.GetByIDs(ctx, patientIDs)
	if err != nil {
		return nil, errors.Wrap(err, "populate patients")
	}
	doctors, err := s.Doctors.GetByIDs(ctx, doctorIDs)
	if err != nil {
		return nil, errors.Wrap(err, "populate doctors")
	}
	patientByID := lo.KeyBy(patients, func(p models.Patient) string { return p.ID })
	doctorByID := lo.KeyBy(doctors, func(d models.Doctor) string { return d.ID })

	return lo.Map(apps, func(a models.Application, _ int) models.ApplicationView {
		var (
			patient *models.Patient
			doctor  *models.Doctor
		)
		if p, ok := patientByID[a.PatientID]; ok {
			patient = &p
		}
		if d, ok := doctorByID[a.DoctorID]; ok {
			doctor = &d
		}
		app := a
		return *assemble(&app, patient, doctor)
	}), nil
}

func assemble(app *models.Application, patient *models.Patient, doctor *models.Doctor) *models.ApplicationView {
	return &models.ApplicationView{
		Application: *app,
		Patient:     patient.Summary(),
		Doctor:      doctor.Summary(),
	}
}
