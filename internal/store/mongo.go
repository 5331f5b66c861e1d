// Package store implements the scheduling store interfaces on MongoDB.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/scheduling"
)

// Stores bundles the mongo-backed store implementations for wiring.
type Stores struct {
	Classes        *ClassStore
	Enrollments    *EnrollmentStore
	Attendance     *AttendanceStore
	MakeupRequests *MakeupRequestStore
	Users          *UserStore
}

func NewStores(client *mongo.Client, dbName string) *Stores {
	db := client.Database(dbName)
	return &Stores{
		Classes:        &ClassStore{collection: db.Collection("classes")},
		Enrollments:    &EnrollmentStore{collection: db.Collection("enrollments")},
		Attendance:     &AttendanceStore{collection: db.Collection("attendances")},
		MakeupRequests: &MakeupRequestStore{collection: db.Collection("makeup_requests")},
		Users:          &UserStore{collection: db.Collection("users")},
	}
}

type ClassStore struct {
	collection *mongo.Collection
}

func (s *ClassStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Class, error) {
	var cls models.Class
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&cls)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cls, nil
}

func (s *ClassStore) FindSiblings(ctx context.Context, q scheduling.SiblingClassQuery) ([]models.Class, error) {
	filter := bson.M{
		"course_id": q.CourseID,
		"_id":       bson.M{"$ne": q.ExcludeClassID},
		"status":    bson.M{"$in": q.Statuses},
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"class_code": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var classes []models.Class
	if err := cursor.All(ctx, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

type EnrollmentStore struct {
	collection *mongo.Collection
}

func (s *EnrollmentStore) FindOne(ctx context.Context, q scheduling.EnrollmentQuery) (*models.Enrollment, error) {
	filter := bson.M{
		"student_id": q.StudentID,
		"class_id":   q.ClassID,
		"status":     bson.M{"$in": q.Statuses},
	}
	var enr models.Enrollment
	err := s.collection.FindOne(ctx, filter).Decode(&enr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &enr, nil
}

func (s *EnrollmentStore) FindByStudent(ctx context.Context, studentID primitive.ObjectID, statuses []models.EnrollmentStatus) ([]models.Enrollment, error) {
	filter := bson.M{
		"student_id": studentID,
		"status":     bson.M{"$in": statuses},
	}
	cursor, err := s.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"enrollment_date": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []models.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

type AttendanceStore struct {
	collection *mongo.Collection
}

func (s *AttendanceStore) FindOne(ctx context.Context, q scheduling.AttendanceQuery) (*models.AttendanceRecord, error) {
	filter := bson.M{
		"class_id":     q.ClassID,
		"session_date": q.SessionDate,
	}
	var rec models.AttendanceRecord
	err := s.collection.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

type MakeupRequestStore struct {
	collection *mongo.Collection
}

func (s *MakeupRequestStore) Count(ctx context.Context, q scheduling.MakeupCountQuery) (int64, error) {
	filter := bson.M{
		"user_id":                         q.StudentID,
		"original_session.class_id":       q.OriginalClassID,
		"original_session.session_number": q.SessionNumber,
		"status":                          bson.M{"$in": q.Statuses},
	}
	return s.collection.CountDocuments(ctx, filter)
}

type UserStore struct {
	collection *mongo.Collection
}

func (s *UserStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var usr models.User
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&usr)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &usr, nil
}
