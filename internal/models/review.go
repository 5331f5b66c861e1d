package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CourseID  primitive.ObjectID `json:"course_id" bson:"course_id"`
	StudentID primitive.ObjectID `json:"student_id" bson:"student_id"`
	Rating    int                `json:"rating" bson:"rating"` // 1..5
	Comment   string             `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}
