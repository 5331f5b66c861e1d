package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EnrollmentStatus string

const (
	EnrollmentEnrolled  EnrollmentStatus = "enrolled"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentDropped   EnrollmentStatus = "dropped"
	EnrollmentPending   EnrollmentStatus = "pending"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

type Progress struct {
	SessionsAttended int        `json:"sessions_attended" bson:"sessions_attended"`
	TotalSessions    int        `json:"total_sessions" bson:"total_sessions"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty" bson:"last_synced_at,omitempty"`
}

type PaymentInfo struct {
	Amount        float64    `json:"amount" bson:"amount"`
	PaymentDate   *time.Time `json:"payment_date,omitempty" bson:"payment_date,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
}

// Enrollment links a student to a class. Unique per (student, class).
// MakeupChangesCount is the number of makeup swaps this enrollment still
// allows; outstanding makeup requests are counted against it at query time.
type Enrollment struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	StudentID          primitive.ObjectID `json:"student_id" bson:"student_id"`
	ClassID            primitive.ObjectID `json:"class_id" bson:"class_id"`
	CourseID           primitive.ObjectID `json:"course_id" bson:"course_id"`
	EnrollmentDate     time.Time          `json:"enrollment_date" bson:"enrollment_date"`
	Status             EnrollmentStatus   `json:"status" bson:"status"`
	MakeupChangesCount int                `json:"makeup_changes_count" bson:"makeup_changes_count"`
	Progress           Progress           `json:"progress" bson:"progress"`
	PaymentStatus      PaymentStatus      `json:"payment_status" bson:"payment_status"`
	PaymentInfo        *PaymentInfo       `json:"payment_info,omitempty" bson:"payment_info,omitempty"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}
