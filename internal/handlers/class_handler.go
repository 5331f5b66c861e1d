package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
)

type ClassHandler struct {
	collection *mongo.Collection
	courses    *mongo.Collection
}

func NewClassHandler(client *mongo.Client, dbName string) *ClassHandler {
	db := client.Database(dbName)
	return &ClassHandler{
		collection: db.Collection("classes"),
		courses:    db.Collection("courses"),
	}
}

type createClassPayload struct {
	CourseID      string   `json:"course_id" validate:"required"`
	Instructor    string   `json:"instructor" validate:"required"`
	Days          []string `json:"days" validate:"required,min=1"`
	MeetLink      string   `json:"meet_link"`
	StartTime     string   `json:"start_time" validate:"required"`
	EndTime       string   `json:"end_time" validate:"required"`
	StartDate     string   `json:"start_date" validate:"required"` // YYYY-MM-DD
	EndDate       string   `json:"end_date"`
	DurationWeeks int      `json:"duration_weeks" validate:"omitempty,min=1"`
	MaxStudents   int      `json:"max_students" validate:"required,min=1"`
}

// CreateClass creates a class under a course with a generated class code
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var payload createClassPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid class: "+err.Error(), http.StatusBadRequest)
		return
	}

	courseID, err := primitive.ObjectIDFromHex(payload.CourseID)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}
	instructorID, err := primitive.ObjectIDFromHex(payload.Instructor)
	if err != nil {
		http.Error(w, "Invalid instructor ID", http.StatusBadRequest)
		return
	}

	startDate, err := schedule.ParseDate(payload.StartDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var endDate time.Time
	if payload.EndDate != "" {
		endDate, err = schedule.ParseDate(payload.EndDate)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	classSchedule := models.ClassSchedule{
		Days:          payload.Days,
		MeetLink:      payload.MeetLink,
		StartTime:     payload.StartTime,
		EndTime:       payload.EndTime,
		StartDate:     startDate,
		EndDate:       endDate,
		DurationWeeks: payload.DurationWeeks,
	}
	// Reject schedules the calendar generator cannot expand
	if _, err := schedule.GenerateSessionDates(classSchedule); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var course models.Course
	err = h.courses.FindOne(ctx, bson.M{"_id": courseID}).Decode(&course)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			http.Error(w, "Course not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to check course existence", http.StatusInternalServerError)
		}
		return
	}

	classCode, err := h.nextClassCode(ctx, course.Level)
	if err != nil {
		http.Error(w, "Failed to generate class code", http.StatusInternalServerError)
		return
	}

	newClass := models.Class{
		ID:         primitive.NewObjectID(),
		CourseID:   courseID,
		ClassCode:  classCode,
		Instructor: instructorID,
		Schedule:   classSchedule,
		Capacity:   models.Capacity{MaxStudents: payload.MaxStudents},
		Status:     models.ClassScheduled,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if _, err := h.collection.InsertOne(ctx, newClass); err != nil {
		http.Error(w, "Failed to create class", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, newClass)
}

// nextClassCode finds the highest code with the level's prefix and
// increments it (B001, B002, ... per level).
func (h *ClassHandler) nextClassCode(ctx context.Context, level models.CourseLevel) (string, error) {
	prefix := level.ClassCodePrefix()
	if prefix == "" {
		return "", fmt.Errorf("no class code prefix for level %q", level)
	}

	var last models.Class
	err := h.collection.FindOne(ctx,
		bson.M{"class_code": bson.M{"$regex": "^" + prefix + "[0-9]+$"}},
		options.FindOne().SetSort(bson.M{"class_code": -1}),
	).Decode(&last)
	if err == mongo.ErrNoDocuments {
		return fmt.Sprintf("%s%03d", prefix, 1), nil
	}
	if err != nil {
		return "", err
	}

	lastNumber, err := strconv.Atoi(last.ClassCode[1:])
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, lastNumber+1), nil
}

// GetClasses lists classes with optional course/status filter and pagination
func (h *ClassHandler) GetClasses(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{}
	if courseID := r.URL.Query().Get("course_id"); courseID != "" {
		objID, err := primitive.ObjectIDFromHex(courseID)
		if err != nil {
			http.Error(w, "Invalid course ID", http.StatusBadRequest)
			return
		}
		filter["course_id"] = objID
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := h.collection.CountDocuments(ctx, filter)
	if err != nil {
		http.Error(w, "Failed to count classes", http.StatusInternalServerError)
		return
	}

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := h.collection.Find(ctx, filter, opts)
	if err != nil {
		http.Error(w, "Failed to fetch classes", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var classes []models.Class
	if err := cursor.All(ctx, &classes); err != nil {
		http.Error(w, "Error decoding classes", http.StatusInternalServerError)
		return
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classes": classes,
		"pagination": map[string]interface{}{
			"current_page":   page,
			"total_pages":    totalPages,
			"total_items":    total,
			"items_per_page": limit,
		},
	})
}

// GetClassByID returns one class
func (h *ClassHandler) GetClassByID(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, cls)
}

// GetUpcomingClasses lists active classes starting on or after today
func (h *ClassHandler) GetUpcomingClasses(w http.ResponseWriter, r *http.Request) {
	filter := bson.M{
		"status":              bson.M{"$in": []models.ClassStatus{models.ClassScheduled, models.ClassOngoing}},
		"schedule.start_date": bson.M{"$gte": schedule.DateOnly(time.Now().UTC())},
	}
	if courseID := r.URL.Query().Get("course_id"); courseID != "" {
		objID, err := primitive.ObjectIDFromHex(courseID)
		if err != nil {
			http.Error(w, "Invalid course ID", http.StatusBadRequest)
			return
		}
		filter["course_id"] = objID
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := h.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"schedule.start_date": 1}))
	if err != nil {
		http.Error(w, "Failed to fetch upcoming classes", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var classes []models.Class
	if err := cursor.All(ctx, &classes); err != nil {
		http.Error(w, "Error decoding classes", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, classes)
}

// GetSessionNumber resolves a calendar date to its session number
func (h *ClassHandler) GetSessionNumber(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	objID, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	dateParam := r.URL.Query().Get("date")
	if dateParam == "" {
		http.Error(w, "Query parameter date is required (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(dateParam)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}

	sessionNumber, err := schedule.DateToSessionNumber(cls.Schedule, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class_id":       cls.ID,
		"date":           dateParam,
		"session_number": sessionNumber,
	})
}
