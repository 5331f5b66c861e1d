package scheduling

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
)

// Typed query structs keep each read contract explicit instead of passing
// ad hoc filter maps around.

// SiblingClassQuery selects the other classes of a course that are still
// candidates for makeup attendance.
type SiblingClassQuery struct {
	CourseID       primitive.ObjectID
	ExcludeClassID primitive.ObjectID
	Statuses       []models.ClassStatus
}

// EnrollmentQuery selects a single (student, class) enrollment by status.
type EnrollmentQuery struct {
	StudentID primitive.ObjectID
	ClassID   primitive.ObjectID
	Statuses  []models.EnrollmentStatus
}

// AttendanceQuery selects the attendance document of one class session.
type AttendanceQuery struct {
	ClassID     primitive.ObjectID
	SessionDate time.Time
}

// MakeupCountQuery counts a student's makeup requests against one original
// session, filtered by status.
type MakeupCountQuery struct {
	StudentID       primitive.ObjectID
	OriginalClassID primitive.ObjectID
	SessionNumber   int
	Statuses        []models.MakeupStatus
}

// Store interfaces return (nil, nil) when no document matches; errors are
// reserved for failed reads.

type ClassStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Class, error)
	FindSiblings(ctx context.Context, q SiblingClassQuery) ([]models.Class, error)
}

type EnrollmentStore interface {
	FindOne(ctx context.Context, q EnrollmentQuery) (*models.Enrollment, error)
	FindByStudent(ctx context.Context, studentID primitive.ObjectID, statuses []models.EnrollmentStatus) ([]models.Enrollment, error)
}

type AttendanceStore interface {
	FindOne(ctx context.Context, q AttendanceQuery) (*models.AttendanceRecord, error)
}

type MakeupRequestStore interface {
	Count(ctx context.Context, q MakeupCountQuery) (int64, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}
