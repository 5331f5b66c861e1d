package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClassStatus string

const (
	ClassScheduled ClassStatus = "scheduled"
	ClassOngoing   ClassStatus = "ongoing"
	ClassCompleted ClassStatus = "completed"
	ClassCancelled ClassStatus = "cancelled"
)

// ClassSchedule describes the weekly meeting pattern of a class.
// Days holds full English weekday names (e.g., ["Monday", "Wednesday"]).
// StartDate and EndDate are calendar dates; the time-of-day window lives in
// StartTime/EndTime as "HH:MM" strings. When EndDate is zero the effective
// end is derived from DurationWeeks.
type ClassSchedule struct {
	Days          []string  `json:"days" bson:"days"`
	MeetLink      string    `json:"meet_link,omitempty" bson:"meet_link,omitempty"`
	StartTime     string    `json:"start_time" bson:"start_time"` // e.g., "19:00"
	EndTime       string    `json:"end_time" bson:"end_time"`     // e.g., "21:00"
	StartDate     time.Time `json:"start_date" bson:"start_date"`
	EndDate       time.Time `json:"end_date,omitempty" bson:"end_date,omitempty"`
	DurationWeeks int       `json:"duration_weeks,omitempty" bson:"duration_weeks,omitempty"`
}

type Capacity struct {
	MaxStudents     int `json:"max_students" bson:"max_students"`
	CurrentStudents int `json:"current_students" bson:"current_students"`
}

type Class struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseID   primitive.ObjectID `json:"course_id" bson:"course_id"`
	ClassCode  string             `json:"class_code" bson:"class_code"` // e.g., B001, I002, A003
	Instructor primitive.ObjectID `json:"instructor" bson:"instructor"`
	Schedule   ClassSchedule      `json:"schedule" bson:"schedule"`
	Capacity   Capacity           `json:"capacity" bson:"capacity"`
	Status     ClassStatus        `json:"status" bson:"status"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsActive reports whether the class still accepts attendance and makeup
// traffic (scheduled or ongoing).
func (c Class) IsActive() bool {
	return c.Status == ClassScheduled || c.Status == ClassOngoing
}
