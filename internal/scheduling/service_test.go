package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
)

type fakeClassStore struct {
	classes      map[primitive.ObjectID]*models.Class
	siblings     []models.Class
	siblingCalls int
}

func (f *fakeClassStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Class, error) {
	return f.classes[id], nil
}

func (f *fakeClassStore) FindSiblings(_ context.Context, q SiblingClassQuery) ([]models.Class, error) {
	f.siblingCalls++
	out := make([]models.Class, 0, len(f.siblings))
	for _, c := range f.siblings {
		if c.CourseID != q.CourseID || c.ID == q.ExcludeClassID {
			continue
		}
		for _, st := range q.Statuses {
			if c.Status == st {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

type fakeEnrollmentStore struct {
	enrollments []models.Enrollment
}

func (f *fakeEnrollmentStore) FindOne(_ context.Context, q EnrollmentQuery) (*models.Enrollment, error) {
	for i, e := range f.enrollments {
		if e.StudentID != q.StudentID || e.ClassID != q.ClassID {
			continue
		}
		for _, st := range q.Statuses {
			if e.Status == st {
				return &f.enrollments[i], nil
			}
		}
	}
	return nil, nil
}

func (f *fakeEnrollmentStore) FindByStudent(_ context.Context, studentID primitive.ObjectID, statuses []models.EnrollmentStatus) ([]models.Enrollment, error) {
	var out []models.Enrollment
	for _, e := range f.enrollments {
		if e.StudentID != studentID {
			continue
		}
		for _, st := range statuses {
			if e.Status == st {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

type fakeAttendanceStore struct {
	records []models.AttendanceRecord
}

func (f *fakeAttendanceStore) FindOne(_ context.Context, q AttendanceQuery) (*models.AttendanceRecord, error) {
	for i, r := range f.records {
		if r.ClassID == q.ClassID && r.SessionDate.Equal(q.SessionDate) {
			return &f.records[i], nil
		}
	}
	return nil, nil
}

type fakeMakeupStore struct {
	requests []models.MakeupRequest
}

func (f *fakeMakeupStore) Count(_ context.Context, q MakeupCountQuery) (int64, error) {
	var n int64
	for _, r := range f.requests {
		if r.UserID != q.StudentID {
			continue
		}
		if r.OriginalSession.ClassID != q.OriginalClassID || r.OriginalSession.SessionNumber != q.SessionNumber {
			continue
		}
		for _, st := range q.Statuses {
			if r.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

type fakeUserStore struct {
	users map[primitive.ObjectID]*models.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return f.users[id], nil
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return d
}

type fixture struct {
	svc         *Service
	classStore  *fakeClassStore
	makeupStore *fakeMakeupStore

	student    primitive.ObjectID
	instructor primitive.ObjectID
	course     primitive.ObjectID
	classA     *models.Class
	classB     *models.Class
}

// newFixture builds a course with two sibling classes: A meets Mon/Wed from
// 2025-01-06 and B meets Tue/Thu from 2025-01-07, both for two weeks. The
// clock is pinned to 2025-01-08.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		student:    primitive.NewObjectID(),
		instructor: primitive.NewObjectID(),
		course:     primitive.NewObjectID(),
	}
	f.classA = &models.Class{
		ID:         primitive.NewObjectID(),
		CourseID:   f.course,
		ClassCode:  "B001",
		Instructor: f.instructor,
		Status:     models.ClassOngoing,
		Schedule: models.ClassSchedule{
			Days:          []string{"Monday", "Wednesday"},
			StartTime:     "19:00",
			EndTime:       "21:00",
			StartDate:     mustDate(t, "2025-01-06"),
			DurationWeeks: 2,
		},
	}
	f.classB = &models.Class{
		ID:         primitive.NewObjectID(),
		CourseID:   f.course,
		ClassCode:  "B002",
		Instructor: f.instructor,
		Status:     models.ClassOngoing,
		Schedule: models.ClassSchedule{
			Days:          []string{"Tuesday", "Thursday"},
			StartTime:     "18:00",
			EndTime:       "20:00",
			StartDate:     mustDate(t, "2025-01-07"),
			DurationWeeks: 2,
		},
	}

	f.classStore = &fakeClassStore{
		classes: map[primitive.ObjectID]*models.Class{
			f.classA.ID: f.classA,
			f.classB.ID: f.classB,
		},
		siblings: []models.Class{*f.classB},
	}
	f.makeupStore = &fakeMakeupStore{}

	enrollments := &fakeEnrollmentStore{enrollments: []models.Enrollment{{
		ID:                 primitive.NewObjectID(),
		StudentID:          f.student,
		ClassID:            f.classA.ID,
		CourseID:           f.course,
		Status:             models.EnrollmentEnrolled,
		MakeupChangesCount: 2,
	}}}
	attendance := &fakeAttendanceStore{records: []models.AttendanceRecord{{
		ClassID:     f.classA.ID,
		SessionDate: mustDate(t, "2025-01-06"),
		Status:      models.AttendanceFinalized,
		Records: []models.AttendanceEntry{
			{StudentID: f.student, IsPresent: false},
		},
	}}}
	users := &fakeUserStore{users: map[primitive.ObjectID]*models.User{
		f.instructor: {ID: f.instructor, DisplayName: "Nguyen Van A"},
	}}

	f.svc = NewService(f.classStore, enrollments, attendance, f.makeupStore, users)
	f.svc.now = func() time.Time { return time.Date(2025, 1, 8, 10, 0, 0, 0, time.UTC) }
	return f
}

func TestStudentSchedule(t *testing.T) {
	f := newFixture(t)

	view, err := f.svc.StudentSchedule(context.Background(), f.classA.ID, f.student)
	require.NoError(t, err)
	require.Len(t, view.Sessions, 4)
	assert.Equal(t, "B001", view.Class.ClassCode)

	// Session 1 was finalized absent and is in the past.
	s1 := view.Sessions[0]
	assert.Equal(t, 1, s1.SessionNumber)
	assert.Equal(t, "2025-01-06", s1.Date)
	assert.Equal(t, "Monday", s1.Day)
	assert.Equal(t, SessionAbsent, s1.Status)
	assert.True(t, s1.MakeupEligible)

	// No attendance record yet for the remaining sessions.
	for _, s := range view.Sessions[1:] {
		assert.Equal(t, SessionPending, s.Status)
		assert.False(t, s.MakeupEligible)
	}
	assert.Equal(t, "2025-01-08", view.Sessions[1].Date)
	assert.Equal(t, "2025-01-13", view.Sessions[2].Date)
	assert.Equal(t, "2025-01-15", view.Sessions[3].Date)
}

func TestStudentSchedulePresentAndDraft(t *testing.T) {
	f := newFixture(t)
	attendance := &fakeAttendanceStore{records: []models.AttendanceRecord{
		{
			ClassID:     f.classA.ID,
			SessionDate: mustDate(t, "2025-01-06"),
			Status:      models.AttendanceFinalized,
			Records:     []models.AttendanceEntry{{StudentID: f.student, IsPresent: true}},
		},
		{
			// Draft rosters must not surface as attendance.
			ClassID:     f.classA.ID,
			SessionDate: mustDate(t, "2025-01-08"),
			Status:      models.AttendanceDraft,
			Records:     []models.AttendanceEntry{{StudentID: f.student, IsPresent: false}},
		},
	}}
	f.svc.attendance = attendance

	view, err := f.svc.StudentSchedule(context.Background(), f.classA.ID, f.student)
	require.NoError(t, err)
	assert.Equal(t, SessionPresent, view.Sessions[0].Status)
	assert.False(t, view.Sessions[0].MakeupEligible)
	assert.Equal(t, SessionPending, view.Sessions[1].Status)
}

func TestStudentScheduleErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.StudentSchedule(context.Background(), primitive.NewObjectID(), f.student)
	assert.ErrorIs(t, err, ErrClassNotFound)

	_, err = f.svc.StudentSchedule(context.Background(), f.classA.ID, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestMyScheduleSkipsMalformedClass(t *testing.T) {
	f := newFixture(t)

	broken := &models.Class{
		ID:       primitive.NewObjectID(),
		CourseID: f.course,
		Status:   models.ClassOngoing,
		Schedule: models.ClassSchedule{
			Days:      []string{"Monday"},
			StartDate: mustDate(t, "2025-01-06"),
			// Neither end date nor duration.
		},
	}
	f.classStore.classes[broken.ID] = broken
	f.svc.enrollments = &fakeEnrollmentStore{enrollments: []models.Enrollment{
		{StudentID: f.student, ClassID: f.classA.ID, Status: models.EnrollmentEnrolled},
		{StudentID: f.student, ClassID: broken.ID, Status: models.EnrollmentEnrolled},
		{StudentID: f.student, ClassID: primitive.NewObjectID(), Status: models.EnrollmentEnrolled},
	}}

	views, err := f.svc.MySchedule(context.Background(), f.student)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, f.classA.ID, views[0].Class.ClassID)
}

func TestFindAvailableMakeupSlots(t *testing.T) {
	f := newFixture(t)

	// Missed session 2 of class A (2025-01-08). Session 2 of class B is
	// Thursday 2025-01-09, which is strictly after the pinned clock.
	res, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RemainingChanges)
	require.Len(t, res.Slots, 1)

	slot := res.Slots[0]
	assert.Equal(t, f.classB.ID, slot.ClassID)
	assert.Equal(t, "B002", slot.ClassCode)
	assert.Equal(t, 2, slot.SessionNumber)
	assert.Equal(t, "2025-01-09", slot.Date)
	assert.Equal(t, "18:00", slot.StartTime)
	assert.Equal(t, "20:00", slot.EndTime)
	assert.Equal(t, f.instructor, slot.InstructorID)
	assert.Equal(t, "Nguyen Van A", slot.InstructorName)
}

func TestFindAvailableMakeupSlotsSameDayExcluded(t *testing.T) {
	f := newFixture(t)

	// Session 1 of class B falls on 2025-01-07, already past the clock, and
	// the same session on 2025-01-08 would not be strictly in the future
	// either, so session 1 has no candidates.
	res, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 1)
	require.NoError(t, err)
	assert.Empty(t, res.Slots)
}

func TestFindAvailableMakeupSlotsQuotaExhausted(t *testing.T) {
	f := newFixture(t)
	f.makeupStore.requests = []models.MakeupRequest{
		{
			UserID: f.student,
			Status: models.MakeupScheduled,
			OriginalSession: models.OriginalSession{
				ClassID:       f.classA.ID,
				SessionNumber: 2,
			},
		},
		{
			UserID: f.student,
			Status: models.MakeupCompleted,
			OriginalSession: models.OriginalSession{
				ClassID:       f.classA.ID,
				SessionNumber: 2,
			},
		},
	}

	res, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, res.RemainingChanges)
	assert.Empty(t, res.Slots)
	assert.Equal(t, 0, f.classStore.siblingCalls, "sibling search must not run with no quota")
}

func TestRemainingChangesFloorsAtZero(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.makeupStore.requests = append(f.makeupStore.requests, models.MakeupRequest{
			UserID: f.student,
			Status: models.MakeupScheduled,
			OriginalSession: models.OriginalSession{
				ClassID:       f.classA.ID,
				SessionNumber: 2,
			},
		})
	}

	enr := &models.Enrollment{StudentID: f.student, MakeupChangesCount: 2}
	remaining, err := f.svc.RemainingChanges(context.Background(), enr, f.classA.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestFindAvailableMakeupSlotsErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, primitive.NewObjectID(), 2)
	assert.ErrorIs(t, err, ErrClassNotFound)

	f.classA.Status = models.ClassCompleted
	_, err = f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 2)
	assert.ErrorIs(t, err, ErrClassNotActive)

	f.classA.Status = models.ClassOngoing
	_, err = f.svc.FindAvailableMakeupSlots(context.Background(), primitive.NewObjectID(), f.classA.ID, 2)
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestFindAvailableMakeupSlotsSkipsBadCandidates(t *testing.T) {
	f := newFixture(t)

	shortClass := models.Class{
		ID:        primitive.NewObjectID(),
		CourseID:  f.course,
		ClassCode: "B003",
		Status:    models.ClassOngoing,
		Schedule: models.ClassSchedule{
			Days:          []string{"Friday"},
			StartDate:     mustDate(t, "2025-01-10"),
			DurationWeeks: 1, // only one session, cannot host session 2
		},
	}
	brokenClass := models.Class{
		ID:        primitive.NewObjectID(),
		CourseID:  f.course,
		ClassCode: "B004",
		Status:    models.ClassOngoing,
		Schedule: models.ClassSchedule{
			Days:      []string{"Banana"},
			StartDate: mustDate(t, "2025-01-06"),
			EndDate:   mustDate(t, "2025-02-06"),
		},
	}
	f.classStore.siblings = append(f.classStore.siblings, shortClass, brokenClass)

	res, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 2)
	require.NoError(t, err)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, "B002", res.Slots[0].ClassCode)
}

func TestFindAvailableMakeupSlotsOrdering(t *testing.T) {
	f := newFixture(t)

	// Another sibling with the same session-2 date as B002: the tie breaks
	// on class code. And one with a later date must sort after both.
	sameDay := *f.classB
	sameDay.ID = primitive.NewObjectID()
	sameDay.ClassCode = "B001X"
	later := models.Class{
		ID:         primitive.NewObjectID(),
		CourseID:   f.course,
		ClassCode:  "B005",
		Instructor: f.instructor,
		Status:     models.ClassScheduled,
		Schedule: models.ClassSchedule{
			Days:          []string{"Saturday"},
			StartTime:     "09:00",
			EndTime:       "11:00",
			StartDate:     mustDate(t, "2025-01-11"),
			DurationWeeks: 4,
		},
	}
	f.classStore.siblings = append(f.classStore.siblings, sameDay, later)

	res, err := f.svc.FindAvailableMakeupSlots(context.Background(), f.student, f.classA.ID, 2)
	require.NoError(t, err)
	require.Len(t, res.Slots, 3)
	assert.Equal(t, "B001X", res.Slots[0].ClassCode)
	assert.Equal(t, "B002", res.Slots[1].ClassCode)
	assert.Equal(t, "B005", res.Slots[2].ClassCode)
	assert.Equal(t, "2025-01-09", res.Slots[0].Date)
	assert.Equal(t, "2025-01-09", res.Slots[1].Date)
	assert.Equal(t, "2025-01-18", res.Slots[2].Date)
}
