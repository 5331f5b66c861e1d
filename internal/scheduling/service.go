// Package scheduling builds per-student session views and finds makeup
// slots across sibling classes. It is read-only over classes, enrollments,
// attendance and makeup requests; all date arithmetic is delegated to the
// schedule package and performed on naive calendar dates.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
)

var (
	// ErrNotEnrolled marks a student without an active enrollment in the
	// referenced class.
	ErrNotEnrolled = errors.New("student is not enrolled in this class")

	// ErrClassNotActive marks a class that is neither scheduled nor ongoing.
	ErrClassNotActive = errors.New("class is not active")

	// ErrClassNotFound marks a class id that does not resolve.
	ErrClassNotFound = errors.New("class not found")
)

type SessionStatus string

const (
	SessionPresent SessionStatus = "present"
	SessionAbsent  SessionStatus = "absent"
	SessionPending SessionStatus = "pending"
)

// SessionView is one row of a student's per-session schedule.
type SessionView struct {
	SessionNumber  int           `json:"session_number"`
	Date           string        `json:"date"` // YYYY-MM-DD
	Day            string        `json:"day"`
	Status         SessionStatus `json:"status"`
	MakeupEligible bool          `json:"makeup_eligible"`
}

// ClassSummary carries the class fields a schedule consumer needs.
type ClassSummary struct {
	ClassID    primitive.ObjectID   `json:"class_id"`
	ClassCode  string               `json:"class_code"`
	CourseID   primitive.ObjectID   `json:"course_id"`
	Instructor primitive.ObjectID   `json:"instructor"`
	Status     models.ClassStatus   `json:"status"`
	Schedule   models.ClassSchedule `json:"schedule"`
}

// ClassScheduleView is a student's full session view for one class.
type ClassScheduleView struct {
	Class    ClassSummary  `json:"class"`
	Sessions []SessionView `json:"sessions"`
}

// MakeupSlot is one candidate replacement session in a sibling class.
type MakeupSlot struct {
	ClassID        primitive.ObjectID `json:"class_id"`
	ClassCode      string             `json:"class_code"`
	SessionNumber  int                `json:"session_number"`
	Date           string             `json:"date"` // YYYY-MM-DD
	StartTime      string             `json:"start_time"`
	EndTime        string             `json:"end_time"`
	InstructorID   primitive.ObjectID `json:"instructor_id"`
	InstructorName string             `json:"instructor_name"`
}

// MakeupSearchResult is the finder's answer: ranked slots plus how many
// swaps the enrollment still allows.
type MakeupSearchResult struct {
	Slots            []MakeupSlot `json:"slots"`
	RemainingChanges int          `json:"remaining_changes"`
}

// countedMakeupStatuses are the request statuses that spend quota.
var countedMakeupStatuses = []models.MakeupStatus{models.MakeupScheduled, models.MakeupCompleted}

// Service answers schedule and makeup queries. It holds no per-request
// state; now is injectable for tests and defaults to time.Now.
type Service struct {
	classes     ClassStore
	enrollments EnrollmentStore
	attendance  AttendanceStore
	makeups     MakeupRequestStore
	users       UserStore
	now         func() time.Time
}

func NewService(classes ClassStore, enrollments EnrollmentStore, attendance AttendanceStore, makeups MakeupRequestStore, users UserStore) *Service {
	return &Service{
		classes:     classes,
		enrollments: enrollments,
		attendance:  attendance,
		makeups:     makeups,
		users:       users,
		now:         time.Now,
	}
}

// today returns the current naive calendar date.
func (s *Service) today() time.Time {
	return schedule.DateOnly(s.now().UTC())
}

// StudentSchedule builds the per-session view of one class for an enrolled
// student. Read-only; attendance is consulted but never written.
func (s *Service) StudentSchedule(ctx context.Context, classID, studentID primitive.ObjectID) (*ClassScheduleView, error) {
	cls, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("look up class: %w", err)
	}
	if cls == nil {
		return nil, ErrClassNotFound
	}

	enr, err := s.enrollments.FindOne(ctx, EnrollmentQuery{
		StudentID: studentID,
		ClassID:   classID,
		Statuses:  []models.EnrollmentStatus{models.EnrollmentEnrolled},
	})
	if err != nil {
		return nil, fmt.Errorf("look up enrollment: %w", err)
	}
	if enr == nil {
		return nil, ErrNotEnrolled
	}

	sessions, err := s.buildSessionViews(ctx, cls, studentID)
	if err != nil {
		return nil, err
	}
	return &ClassScheduleView{Class: summarize(cls), Sessions: sessions}, nil
}

// MySchedule builds the session view for every class the student is
// currently enrolled in. A class with a malformed schedule is logged and
// skipped so one bad document cannot hide the rest of the schedule.
func (s *Service) MySchedule(ctx context.Context, studentID primitive.ObjectID) ([]ClassScheduleView, error) {
	enrollments, err := s.enrollments.FindByStudent(ctx, studentID, []models.EnrollmentStatus{models.EnrollmentEnrolled})
	if err != nil {
		return nil, fmt.Errorf("look up enrollments: %w", err)
	}

	views := make([]ClassScheduleView, 0, len(enrollments))
	for _, enr := range enrollments {
		cls, err := s.classes.FindByID(ctx, enr.ClassID)
		if err != nil {
			return nil, fmt.Errorf("look up class %s: %w", enr.ClassID.Hex(), err)
		}
		if cls == nil {
			log.Printf("my-schedule: enrollment %s references missing class %s, skipping", enr.ID.Hex(), enr.ClassID.Hex())
			continue
		}
		sessions, err := s.buildSessionViews(ctx, cls, studentID)
		if err != nil {
			if errors.Is(err, schedule.ErrInvalidSchedule) {
				log.Printf("my-schedule: class %s has a malformed schedule, skipping: %v", cls.ClassCode, err)
				continue
			}
			return nil, err
		}
		views = append(views, ClassScheduleView{Class: summarize(cls), Sessions: sessions})
	}
	return views, nil
}

func (s *Service) buildSessionViews(ctx context.Context, cls *models.Class, studentID primitive.ObjectID) ([]SessionView, error) {
	dates, err := schedule.GenerateSessionDates(cls.Schedule)
	if err != nil {
		return nil, err
	}

	today := s.today()
	views := make([]SessionView, 0, len(dates))
	for i, date := range dates {
		view := SessionView{
			SessionNumber: i + 1,
			Date:          schedule.FormatDate(date),
			Day:           date.Weekday().String(),
			Status:        SessionPending,
		}

		rec, err := s.attendance.FindOne(ctx, AttendanceQuery{ClassID: cls.ID, SessionDate: date})
		if err != nil {
			return nil, fmt.Errorf("look up attendance for %s: %w", schedule.FormatDate(date), err)
		}
		// Draft records do not count: the session stays pending until the
		// instructor finalizes the roster.
		if rec != nil && rec.Status == models.AttendanceFinalized {
			if entry, ok := rec.EntryFor(studentID); ok {
				if entry.IsPresent {
					view.Status = SessionPresent
				} else {
					view.Status = SessionAbsent
					view.MakeupEligible = date.Before(today)
				}
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// RemainingChanges computes how many makeup swaps the enrollment still
// allows against one original session. Floors at zero.
func (s *Service) RemainingChanges(ctx context.Context, enr *models.Enrollment, originalClassID primitive.ObjectID, sessionNumber int) (int, error) {
	used, err := s.makeups.Count(ctx, MakeupCountQuery{
		StudentID:       enr.StudentID,
		OriginalClassID: originalClassID,
		SessionNumber:   sessionNumber,
		Statuses:        countedMakeupStatuses,
	})
	if err != nil {
		return 0, fmt.Errorf("count makeup requests: %w", err)
	}
	remaining := enr.MakeupChangesCount - int(used)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// FindAvailableMakeupSlots searches the sibling classes of the original
// class for a future occurrence of the same session number. Candidates with
// malformed schedules are logged and skipped rather than failing the whole
// search. Results are ranked soonest first, ties broken by class code.
func (s *Service) FindAvailableMakeupSlots(ctx context.Context, studentID, originalClassID primitive.ObjectID, sessionNumber int) (*MakeupSearchResult, error) {
	cls, err := s.classes.FindByID(ctx, originalClassID)
	if err != nil {
		return nil, fmt.Errorf("look up class: %w", err)
	}
	if cls == nil {
		return nil, ErrClassNotFound
	}
	if !cls.IsActive() {
		return nil, fmt.Errorf("%w: status is %s", ErrClassNotActive, cls.Status)
	}

	enr, err := s.enrollments.FindOne(ctx, EnrollmentQuery{
		StudentID: studentID,
		ClassID:   originalClassID,
		Statuses:  []models.EnrollmentStatus{models.EnrollmentEnrolled},
	})
	if err != nil {
		return nil, fmt.Errorf("look up enrollment: %w", err)
	}
	if enr == nil {
		return nil, ErrNotEnrolled
	}

	remaining, err := s.RemainingChanges(ctx, enr, originalClassID, sessionNumber)
	if err != nil {
		return nil, err
	}
	if remaining == 0 {
		// Quota exhausted: skip the sibling search entirely.
		return &MakeupSearchResult{Slots: []MakeupSlot{}, RemainingChanges: 0}, nil
	}

	siblings, err := s.classes.FindSiblings(ctx, SiblingClassQuery{
		CourseID:       cls.CourseID,
		ExcludeClassID: cls.ID,
		Statuses:       []models.ClassStatus{models.ClassScheduled, models.ClassOngoing},
	})
	if err != nil {
		return nil, fmt.Errorf("look up sibling classes: %w", err)
	}

	today := s.today()
	slots := make([]MakeupSlot, 0, len(siblings))
	for _, cand := range siblings {
		dates, err := schedule.GenerateSessionDates(cand.Schedule)
		if err != nil {
			log.Printf("makeup search: skipping class %s: %v", cand.ClassCode, err)
			continue
		}
		if sessionNumber < 1 || sessionNumber > len(dates) {
			continue
		}
		date := dates[sessionNumber-1]
		if !date.After(today) {
			continue
		}
		if dates[len(dates)-1].Before(today) {
			continue
		}

		slot := MakeupSlot{
			ClassID:       cand.ID,
			ClassCode:     cand.ClassCode,
			SessionNumber: sessionNumber,
			Date:          schedule.FormatDate(date),
			StartTime:     cand.Schedule.StartTime,
			EndTime:       cand.Schedule.EndTime,
			InstructorID:  cand.Instructor,
		}
		if instructor, err := s.users.FindByID(ctx, cand.Instructor); err != nil {
			log.Printf("makeup search: instructor lookup failed for class %s: %v", cand.ClassCode, err)
		} else if instructor != nil {
			slot.InstructorName = instructor.DisplayName
		}
		slots = append(slots, slot)
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].ClassCode < slots[j].ClassCode
	})
	return &MakeupSearchResult{Slots: slots, RemainingChanges: remaining}, nil
}

func summarize(cls *models.Class) ClassSummary {
	return ClassSummary{
		ClassID:    cls.ID,
		ClassCode:  cls.ClassCode,
		CourseID:   cls.CourseID,
		Instructor: cls.Instructor,
		Status:     cls.Status,
		Schedule:   cls.Schedule,
	}
}
