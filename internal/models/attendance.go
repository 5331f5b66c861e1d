package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AttendanceStatus string

const (
	AttendanceDraft     AttendanceStatus = "draft"
	AttendanceFinalized AttendanceStatus = "finalized"
)

type AttendanceEntry struct {
	StudentID primitive.ObjectID `json:"student_id" bson:"student_id"`
	IsPresent bool               `json:"is_present" bson:"is_present"`
	Note      string             `json:"note,omitempty" bson:"note,omitempty"`
	MarkedAt  time.Time          `json:"marked_at" bson:"marked_at"`
	MarkedBy  primitive.ObjectID `json:"marked_by" bson:"marked_by"`
}

type AttendanceStatistics struct {
	TotalStudents int `json:"total_students" bson:"total_students"`
	PresentCount  int `json:"present_count" bson:"present_count"`
	AbsentCount   int `json:"absent_count" bson:"absent_count"`
}

// AttendanceRecord is one document per (class, session date). Only records
// with status finalized count toward absences and enrollment progress; a
// draft is the instructor's in-progress roster.
type AttendanceRecord struct {
	ID            primitive.ObjectID   `json:"id" bson:"_id,omitempty"`
	ClassID       primitive.ObjectID   `json:"class_id" bson:"class_id"`
	SessionNumber int                  `json:"session_number" bson:"session_number"`
	SessionDate   time.Time            `json:"session_date" bson:"session_date"`
	InstructorID  primitive.ObjectID   `json:"instructor_id" bson:"instructor_id"`
	Records       []AttendanceEntry    `json:"records" bson:"records"`
	Statistics    AttendanceStatistics `json:"statistics" bson:"statistics"`
	Status        AttendanceStatus     `json:"status" bson:"status"`
	CreatedAt     time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" bson:"updated_at"`
}

// EntryFor returns the presence entry for the given student, if any.
func (a AttendanceRecord) EntryFor(studentID primitive.ObjectID) (AttendanceEntry, bool) {
	for _, rec := range a.Records {
		if rec.StudentID == studentID {
			return rec, true
		}
	}
	return AttendanceEntry{}, false
}

// RecomputeStatistics refreshes the denormalized counters from Records.
func (a *AttendanceRecord) RecomputeStatistics() {
	a.Statistics.TotalStudents = len(a.Records)
	a.Statistics.PresentCount = 0
	for _, rec := range a.Records {
		if rec.IsPresent {
			a.Statistics.PresentCount++
		}
	}
	a.Statistics.AbsentCount = a.Statistics.TotalStudents - a.Statistics.PresentCount
}
