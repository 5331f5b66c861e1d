package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title       string             `json:"title" bson:"title"`
	Level       CourseLevel        `json:"level" bson:"level"`
	Description string             `json:"description" bson:"description"`
	Type        string             `json:"type" bson:"type"` // e.g., "live-meet", "self-paced"
	Price       float64            `json:"price" bson:"price"`
	CreatedBy   primitive.ObjectID `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
	Archived    bool               `json:"archived" bson:"archived"`
}

// ClassCodePrefix returns the single-letter prefix used when generating
// class codes for classes of this course (B001, I001, A001).
func (l CourseLevel) ClassCodePrefix() string {
	switch l {
	case LevelBeginner:
		return "B"
	case LevelIntermediate:
		return "I"
	case LevelAdvanced:
		return "A"
	}
	return ""
}
