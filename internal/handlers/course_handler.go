package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/middleware"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
)

type CourseHandler struct {
	collection *mongo.Collection
	reviews    *mongo.Collection
}

func NewCourseHandler(client *mongo.Client, dbName string) *CourseHandler {
	db := client.Database(dbName)
	return &CourseHandler{
		collection: db.Collection("courses"),
		reviews:    db.Collection("reviews"),
	}
}

type createCoursePayload struct {
	Title       string  `json:"title" validate:"required"`
	Level       string  `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Description string  `json:"description"`
	Type        string  `json:"type" validate:"required,oneof=live-meet self-paced"`
	Price       float64 `json:"price" validate:"gte=0"`
}

// CreateCourse handles creating a new course
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var payload createCoursePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid course: "+err.Error(), http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	createdBy, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	newCourse := models.Course{
		ID:          primitive.NewObjectID(),
		Title:       payload.Title,
		Level:       models.CourseLevel(payload.Level),
		Description: payload.Description,
		Type:        payload.Type,
		Price:       payload.Price,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Archived:    false,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.collection.InsertOne(ctx, newCourse); err != nil {
		http.Error(w, "Failed to create course", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, newCourse)
}

// GetCourses retrieves all non-archived courses, optionally by level
func (h *CourseHandler) GetCourses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{"archived": false}
	if level := r.URL.Query().Get("level"); level != "" {
		filter["level"] = level
	}

	cursor, err := h.collection.Find(ctx, filter)
	if err != nil {
		http.Error(w, "Failed to fetch courses", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var courses []models.Course
	if err = cursor.All(ctx, &courses); err != nil {
		http.Error(w, "Error decoding courses", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, courses)
}

// GetCourseByID returns one course with its average review rating
func (h *CourseHandler) GetCourseByID(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var course models.Course
	if err := h.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&course); err != nil {
		http.Error(w, "Course not found", http.StatusNotFound)
		return
	}

	// Average rating over the course's reviews
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "course_id", Value: objID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$course_id"},
			{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "review_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := h.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		http.Error(w, "Failed to fetch course rating", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	rating := struct {
		AverageRating float64 `json:"average_rating" bson:"average_rating"`
		ReviewCount   int     `json:"review_count" bson:"review_count"`
	}{}
	if cursor.Next(ctx) {
		if err := cursor.Decode(&rating); err != nil {
			http.Error(w, "Error decoding course rating", http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"course":         course,
		"average_rating": rating.AverageRating,
		"review_count":   rating.ReviewCount,
	})
}

// UpdateCourse updates course details
func (h *CourseHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	var payload createCoursePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid course: "+err.Error(), http.StatusBadRequest)
		return
	}

	update := bson.M{
		"$set": bson.M{
			"title":       payload.Title,
			"level":       payload.Level,
			"description": payload.Description,
			"type":        payload.Type,
			"price":       payload.Price,
			"updated_at":  time.Now(),
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.collection.UpdateOne(ctx, bson.M{"_id": objID}, update); err != nil {
		http.Error(w, "Failed to update course", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Course updated successfully"))
}

// ArchiveCourse marks a course as archived
func (h *CourseHandler) ArchiveCourse(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"archived": true}}); err != nil {
		http.Error(w, "Failed to archive course", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Course archived successfully"))
}

type createReviewPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment"`
}

// CreateReview stores a student's rating of a course
func (h *CourseHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var payload createReviewPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid review: "+err.Error(), http.StatusBadRequest)
		return
	}

	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	review := models.Review{
		ID:        primitive.NewObjectID(),
		CourseID:  courseID,
		StudentID: studentID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
		CreatedAt: time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.reviews.InsertOne(ctx, review); err != nil {
		http.Error(w, "Failed to create review", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, review)
}

// GetCourseReviews lists the reviews of one course
func (h *CourseHandler) GetCourseReviews(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cursor, err := h.reviews.Find(ctx, bson.M{"course_id": objID})
	if err != nil {
		http.Error(w, "Failed to fetch reviews", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		http.Error(w, "Error decoding reviews", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reviews)
}
