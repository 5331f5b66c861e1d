package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/middleware"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/scheduling"
)

// defaultMakeupChanges is the number of makeup swaps a fresh enrollment
// allows per missed session.
const defaultMakeupChanges = 2

type EnrollmentHandler struct {
	collection *mongo.Collection
	classes    *mongo.Collection
	scheduling *scheduling.Service
}

func NewEnrollmentHandler(client *mongo.Client, dbName string, svc *scheduling.Service) *EnrollmentHandler {
	db := client.Database(dbName)
	return &EnrollmentHandler{
		collection: db.Collection("enrollments"),
		classes:    db.Collection("classes"),
		scheduling: svc,
	}
}

type enrollPayload struct {
	ClassID string  `json:"class_id" validate:"required"`
	Amount  float64 `json:"amount" validate:"gte=0"`
}

// Enroll registers the authenticated student into a class
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var payload enrollPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid enrollment: "+err.Error(), http.StatusBadRequest)
		return
	}

	classID, err := primitive.ObjectIDFromHex(payload.ClassID)
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}
	if !cls.IsActive() {
		http.Error(w, "Class is not open for enrollment", http.StatusBadRequest)
		return
	}
	if cls.Capacity.CurrentStudents >= cls.Capacity.MaxStudents {
		http.Error(w, "Class is full", http.StatusConflict)
		return
	}

	// One enrollment per (student, class)
	count, err := h.collection.CountDocuments(ctx, bson.M{"student_id": studentID, "class_id": classID})
	if err != nil {
		http.Error(w, "Failed to check existing enrollment", http.StatusInternalServerError)
		return
	}
	if count > 0 {
		http.Error(w, "Already enrolled in this class", http.StatusConflict)
		return
	}

	totalSessions, err := schedule.TotalSessions(cls.Schedule)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	enrollment := models.Enrollment{
		ID:                 primitive.NewObjectID(),
		StudentID:          studentID,
		ClassID:            classID,
		CourseID:           cls.CourseID,
		EnrollmentDate:     now,
		Status:             models.EnrollmentEnrolled,
		MakeupChangesCount: defaultMakeupChanges,
		Progress:           models.Progress{TotalSessions: totalSessions},
		PaymentStatus:      models.PaymentPaid,
		PaymentInfo: &models.PaymentInfo{
			Amount:        payload.Amount,
			PaymentDate:   &now,
			TransactionID: uuid.NewString(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := h.collection.InsertOne(ctx, enrollment); err != nil {
		http.Error(w, "Failed to create enrollment", http.StatusInternalServerError)
		return
	}

	// Best-effort capacity bump; the enrollment is the source of truth
	if _, err := h.classes.UpdateOne(ctx, bson.M{"_id": classID},
		bson.M{"$inc": bson.M{"capacity.current_students": 1}}); err != nil {
		http.Error(w, "Failed to update class capacity", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, enrollment)
}

// GetMySchedule returns the per-session view of every enrolled class
func (h *EnrollmentHandler) GetMySchedule(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	views, err := h.scheduling.MySchedule(ctx, studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetClassSchedule returns the per-session view of one enrolled class
func (h *EnrollmentHandler) GetClassSchedule(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(r.URL.Query().Get("class_id"))
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	view, err := h.scheduling.StudentSchedule(ctx, classID, studentID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
