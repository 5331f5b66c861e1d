package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MakeupStatus string

const (
	MakeupScheduled MakeupStatus = "scheduled"
	MakeupCompleted MakeupStatus = "completed"
)

// OriginalSession identifies the missed session a makeup request swaps out.
type OriginalSession struct {
	ClassID       primitive.ObjectID `json:"class_id" bson:"class_id"`
	SessionNumber int                `json:"session_number" bson:"session_number"`
	Date          time.Time          `json:"date" bson:"date"`
	AttendanceID  primitive.ObjectID `json:"attendance_id" bson:"attendance_id"`
}

// MakeupSlotRef identifies the chosen replacement session in a sibling class.
type MakeupSlotRef struct {
	ClassID       primitive.ObjectID `json:"class_id" bson:"class_id"`
	SessionNumber int                `json:"session_number" bson:"session_number"`
	Date          time.Time          `json:"date" bson:"date"`
	Time          string             `json:"time" bson:"time"` // e.g., "18:00 - 20:00"
}

type MakeupRequest struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id"`
	OriginalSession OriginalSession    `json:"original_session" bson:"original_session"`
	MakeupSlot      MakeupSlotRef      `json:"makeup_slot" bson:"makeup_slot"`
	Status          MakeupStatus       `json:"status" bson:"status"`
	RegisteredAt    time.Time          `json:"registered_at" bson:"registered_at"`
	ConfirmedAt     *time.Time         `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}
