package schedule

import (
	"context"
	"testing"

	"clinicdesk/models"
	"clinicdesk/utils"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSlot(t *testing.T, id, date, start, end, owner string) Slot {
	t.Helper()
	s, err := NewSlot(id, date, start, end, owner)
	require.NoError(t, err)
	return s
}

func task(id, date, start, end, owner string) models.Task {
	return models.Task{ID: id, Date: date, StartTime: start, EndTime: end, Executor: owner}
}

func TestParseTimeOfDay(t *testing.T) {
	valid := map[string]TimeOfDay{
		"00:00": 0,
		"9:05":  545,
		"09:30": 570,
		"23:59": 1439,
	}
	for in, want := range valid {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "24:00", "12:60", "1230", "12:5", "ab:cd", "-1:00", "123:00", "+9:00"} {
		_, err := ParseTimeOfDay(in)
		var ve *utils.ValidationError
		assert.True(t, errors.As(err, &ve), in)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(545).String())
	assert.Equal(t, "23:59", TimeOfDay(1439).String())
}

func TestNewSlotValidation(t *testing.T) {
	cases := []struct {
		name                    string
		date, start, end, owner string
		field                   string
	}{
		{"bad date", "2025-13-01", "09:00", "10:00", "Dr. A", "date"},
		{"bad start", "2025-03-01", "9am", "10:00", "Dr. A", "startTime"},
		{"bad end", "2025-03-01", "09:00", "25:00", "Dr. A", "endTime"},
		{"end before start", "2025-03-01", "10:00", "09:00", "Dr. A", "endTime"},
		{"empty window", "2025-03-01", "10:00", "10:00", "Dr. A", "endTime"},
		{"missing owner", "2025-03-01", "09:00", "10:00", "  ", "owner"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewSlot("x", tc.date, tc.start, tc.end, tc.owner)
			var ve *utils.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestHasConflictEdgeCases(t *testing.T) {
	const day = "2025-03-01"
	booked := []models.BookableInterval{task("t1", day, "09:00", "10:00", "Dr. A")}

	cases := []struct {
		name       string
		candidate  Slot
		wantResult bool
	}{
		{"adjacent after", mustSlot(t, "c", day, "10:00", "11:00", "Dr. A"), false},
		{"adjacent before", mustSlot(t, "c", day, "08:00", "09:00", "Dr. A"), false},
		{"partial overlap at end", mustSlot(t, "c", day, "09:30", "10:30", "Dr. A"), true},
		{"partial overlap at start", mustSlot(t, "c", day, "08:30", "09:30", "Dr. A"), true},
		{"containment", mustSlot(t, "c", day, "09:15", "09:45", "Dr. A"), true},
		{"contains existing", mustSlot(t, "c", day, "08:00", "11:00", "Dr. A"), true},
		{"identical", mustSlot(t, "c", day, "09:00", "10:00", "Dr. A"), true},
		{"other owner", mustSlot(t, "c", day, "09:00", "10:00", "Dr. B"), false},
		{"other date", mustSlot(t, "c", "2025-03-02", "09:00", "10:00", "Dr. A"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantResult, HasConflict(tc.candidate, booked, ""))
		})
	}
}

func TestHasConflictIsSymmetric(t *testing.T) {
	const day = "2025-03-01"
	windows := [][2]string{
		{"09:00", "10:00"}, {"10:00", "11:00"}, {"09:30", "10:30"},
		{"08:00", "12:00"}, {"09:15", "09:45"}, {"13:00", "14:00"},
	}
	for _, a := range windows {
		for _, b := range windows {
			sa := mustSlot(t, "a", day, a[0], a[1], "Dr. A")
			sb := mustSlot(t, "b", day, b[0], b[1], "Dr. A")
			ab := HasConflict(sa, []models.BookableInterval{task("b", day, b[0], b[1], "Dr. A")}, "")
			ba := HasConflict(sb, []models.BookableInterval{task("a", day, a[0], a[1], "Dr. A")}, "")
			assert.Equal(t, ab, ba, "%v vs %v", a, b)
		}
	}
}

func TestFindConflictExcludesSelf(t *testing.T) {
	const day = "2025-03-01"
	booked := []models.BookableInterval{
		task("t1", day, "09:00", "10:00", "Nurse Kim"),
		task("t2", day, "11:00", "12:00", "Nurse Kim"),
	}

	moved := mustSlot(t, "t1", day, "09:30", "10:30", "Nurse Kim")
	_, found := FindConflict(moved, booked, "t1")
	assert.False(t, found)

	clash := mustSlot(t, "t1", day, "10:30", "11:30", "Nurse Kim")
	other, found := FindConflict(clash, booked, "t1")
	require.True(t, found)
	assert.Equal(t, "t2", other.ID)
}

func TestFindConflictSkipsUnparseableIntervals(t *testing.T) {
	const day = "2025-03-01"
	booked := []models.BookableInterval{
		models.Appointment{ID: "HD-R-001-03/2025-0001", Date: day, StartTime: "", EndTime: "", DoctorName: "Dr. A"},
		models.Appointment{ID: "HD-R-002-03/2025-0002", Date: day, StartTime: "10:00", EndTime: "09:00", DoctorName: "Dr. A"},
	}
	assert.False(t, HasConflict(mustSlot(t, "c", day, "09:00", "10:00", "Dr. A"), booked, ""))
}

func TestIndexGroupsByDateAndOwner(t *testing.T) {
	intervals := []models.BookableInterval{
		task("t1", "2025-03-01", "09:00", "10:00", "Dr. A"),
		models.Appointment{ID: "a1", Date: "2025-03-01", StartTime: "11:00", EndTime: "12:00", DoctorName: "Dr. A"},
		task("t2", "2025-03-01", "09:00", "10:00", "Dr. B"),
		task("t3", "2025-03-02", "09:00", "10:00", "Dr. A"),
	}
	ix := NewIndex(intervals)
	assert.Len(t, ix[Key{Date: "2025-03-01", Owner: "Dr. A"}], 2)
	assert.Len(t, ix, 3)

	other, found := ix.FindConflict(mustSlot(t, "c", "2025-03-01", "11:30", "12:30", "Dr. A"), "")
	require.True(t, found)
	assert.Equal(t, "a1", other.ID)
}

type fakeTasks struct{ items []models.Task }

func (f *fakeTasks) ListByOwnerAndDate(_ context.Context, owner, date string) ([]models.Task, error) {
	var out []models.Task
	for _, t := range f.items {
		if t.Executor == owner && t.Date == date {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeAppointments struct {
	items []models.Appointment
	err   error
}

func (f *fakeAppointments) ListByOwnerAndDate(_ context.Context, owner, date string) ([]models.Appointment, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Appointment
	for _, a := range f.items {
		if a.DoctorName == owner && a.Date == date {
			out = append(out, a)
		}
	}
	return out, nil
}

func TestCalendarCheckDoctorScenario(t *testing.T) {
	ctx := context.Background()
	appts := &fakeAppointments{items: []models.Appointment{{
		ID: "HD-R-001-03/2025-0001", DoctorName: "Dr. A", Date: "2025-03-01", StartTime: "09:00", EndTime: "10:00",
	}}}
	cal := NewCalendar(&fakeTasks{}, appts)

	err := cal.Check(ctx, mustSlot(t, "", "2025-03-01", "09:30", "10:30", "Dr. A"), "")
	var ce *utils.ConflictError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "HD-R-001-03/2025-0001", ce.ID)
	assert.Equal(t, "09:00", ce.Start)
	assert.Equal(t, "10:00", ce.End)

	assert.NoError(t, cal.Check(ctx, mustSlot(t, "", "2025-03-01", "09:30", "10:30", "Dr. B"), ""))
}

func TestCalendarCheckSeesTasksAndAppointments(t *testing.T) {
	ctx := context.Background()
	tasks := &fakeTasks{items: []models.Task{task("t1", "2025-03-01", "14:00", "15:00", "Dr. A")}}
	cal := NewCalendar(tasks, &fakeAppointments{})

	err := cal.Check(ctx, mustSlot(t, "", "2025-03-01", "14:30", "15:30", "Dr. A"), "")
	assert.Equal(t, 409, utils.StatusFor(err))

	assert.NoError(t, cal.Check(ctx, mustSlot(t, "t1", "2025-03-01", "14:30", "15:30", "Dr. A"), "t1"))
}

func TestCalendarCheckSurfacesLoadErrors(t *testing.T) {
	cal := NewCalendar(nil, &fakeAppointments{err: errors.New("timeout")})
	err := cal.Check(context.Background(), mustSlot(t, "", "2025-03-01", "09:00", "10:00", "Dr. A"), "")
	require.Error(t, err)
	assert.Equal(t, 500, utils.StatusFor(err))
}
