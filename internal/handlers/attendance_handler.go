package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/middleware"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
)

type AttendanceHandler struct {
	collection  *mongo.Collection
	classes     *mongo.Collection
	enrollments *mongo.Collection
	users       *mongo.Collection
}

func NewAttendanceHandler(client *mongo.Client, dbName string) *AttendanceHandler {
	db := client.Database(dbName)
	return &AttendanceHandler{
		collection:  db.Collection("attendances"),
		classes:     db.Collection("classes"),
		enrollments: db.Collection("enrollments"),
		users:       db.Collection("users"),
	}
}

type rosterStudent struct {
	StudentID      primitive.ObjectID `json:"student_id"`
	Name           string             `json:"name"`
	Email          string             `json:"email"`
	EnrollmentDate time.Time          `json:"enrollment_date"`
	Progress       models.Progress    `json:"progress"`
}

// classRoster lists the paying, enrolled students of a class.
func (h *AttendanceHandler) classRoster(ctx context.Context, classID primitive.ObjectID) ([]rosterStudent, error) {
	filter := bson.M{
		"class_id":       classID,
		"status":         bson.M{"$in": []models.EnrollmentStatus{models.EnrollmentEnrolled, models.EnrollmentCompleted}},
		"payment_status": models.PaymentPaid,
	}
	cursor, err := h.enrollments.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var enrollments []models.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return nil, err
	}

	students := make([]rosterStudent, 0, len(enrollments))
	for _, enr := range enrollments {
		student := rosterStudent{
			StudentID:      enr.StudentID,
			EnrollmentDate: enr.EnrollmentDate,
			Progress:       enr.Progress,
		}
		var usr models.User
		if err := h.users.FindOne(ctx, bson.M{"_id": enr.StudentID}).Decode(&usr); err == nil {
			student.Name = usr.DisplayName
			student.Email = usr.Email
		}
		students = append(students, student)
	}
	return students, nil
}

// GetClassStudents returns the roster of a class
func (h *AttendanceHandler) GetClassStudents(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}

	students, err := h.classRoster(ctx, classID)
	if err != nil {
		http.Error(w, "Failed to fetch class students", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"class_id":       cls.ID,
		"class_code":     cls.ClassCode,
		"students":       students,
		"total_students": len(students),
	})
}

// GetAttendanceByDate returns the attendance sheet for one session date,
// creating a draft with the current roster when none exists yet
func (h *AttendanceHandler) GetAttendanceByDate(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	instructorID, err := primitive.ObjectIDFromHex(userID)
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

	// The chosen date must be one of the class's generated session dates
	sessionNumber, err := schedule.DateToSessionNumber(cls.Schedule, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var record models.AttendanceRecord
	err = h.collection.FindOne(ctx, bson.M{"class_id": classID, "session_date": date}).Decode(&record)
	if err == nil {
		writeJSON(w, http.StatusOK, record)
		return
	}
	if err != mongo.ErrNoDocuments {
		http.Error(w, "Failed to fetch attendance", http.StatusInternalServerError)
		return
	}

	// No sheet yet: create a draft pre-filled with the roster
	students, err := h.classRoster(ctx, classID)
	if err != nil {
		http.Error(w, "Failed to fetch class students", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	record = models.AttendanceRecord{
		ID:            primitive.NewObjectID(),
		ClassID:       classID,
		SessionNumber: sessionNumber,
		SessionDate:   date,
		InstructorID:  instructorID,
		Status:        models.AttendanceDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, student := range students {
		record.Records = append(record.Records, models.AttendanceEntry{
			StudentID: student.StudentID,
			IsPresent: false,
			MarkedAt:  now,
			MarkedBy:  instructorID,
		})
	}
	record.RecomputeStatistics()

	if _, err := h.collection.InsertOne(ctx, record); err != nil {
		http.Error(w, "Failed to create attendance draft", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

type saveAttendancePayload struct {
	Date     string `json:"date" validate:"required"`
	Students []struct {
		StudentID string `json:"student_id" validate:"required"`
		IsPresent bool   `json:"is_present"`
		Note      string `json:"note"`
	} `json:"students" validate:"required,min=1"`
}

// SaveAttendance finalizes the attendance sheet for one session date and
// syncs enrollment progress counters
func (h *AttendanceHandler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	var payload saveAttendancePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid attendance: "+err.Error(), http.StatusBadRequest)
		return
	}

	date, err := schedule.ParseDate(payload.Date)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	instructorID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}

	sessionNumber, err := schedule.DateToSessionNumber(cls.Schedule, date)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now()
	record := models.AttendanceRecord{
		ClassID:       classID,
		SessionNumber: sessionNumber,
		SessionDate:   date,
		InstructorID:  instructorID,
		Status:        models.AttendanceFinalized,
		UpdatedAt:     now,
	}
	for _, entry := range payload.Students {
		studentID, err := primitive.ObjectIDFromHex(entry.StudentID)
		if err != nil {
			http.Error(w, "Invalid student ID", http.StatusBadRequest)
			return
		}
		record.Records = append(record.Records, models.AttendanceEntry{
			StudentID: studentID,
			IsPresent: entry.IsPresent,
			Note:      entry.Note,
			MarkedAt:  now,
			MarkedBy:  instructorID,
		})
	}
	record.RecomputeStatistics()

	update := bson.M{
		"$set": bson.M{
			"session_number": record.SessionNumber,
			"instructor_id":  record.InstructorID,
			"records":        record.Records,
			"statistics":     record.Statistics,
			"status":         record.Status,
			"updated_at":     record.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"class_id":     classID,
			"session_date": date,
			"created_at":   now,
		},
	}
	_, err = h.collection.UpdateOne(ctx,
		bson.M{"class_id": classID, "session_date": date},
		update, options.Update().SetUpsert(true))
	if err != nil {
		http.Error(w, "Failed to save attendance", http.StatusInternalServerError)
		return
	}

	// Best-effort progress sync; a failed sync does not fail the save
	if err := h.syncEnrollmentProgress(ctx, classID); err != nil {
		log.Printf("attendance: progress sync for class %s failed: %v", cls.ClassCode, err)
	}

	writeJSON(w, http.StatusOK, record)
}

// syncEnrollmentProgress recounts attended sessions for every paying
// enrollment of the class from the finalized attendance documents.
func (h *AttendanceHandler) syncEnrollmentProgress(ctx context.Context, classID primitive.ObjectID) error {
	filter := bson.M{
		"class_id":       classID,
		"status":         bson.M{"$in": []models.EnrollmentStatus{models.EnrollmentEnrolled, models.EnrollmentCompleted}},
		"payment_status": models.PaymentPaid,
	}
	cursor, err := h.enrollments.Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var enrollments []models.Enrollment
	if err := cursor.All(ctx, &enrollments); err != nil {
		return err
	}

	now := time.Now()
	for _, enr := range enrollments {
		attended, err := h.collection.CountDocuments(ctx, bson.M{
			"class_id": classID,
			"status":   models.AttendanceFinalized,
			"records":  bson.M{"$elemMatch": bson.M{"student_id": enr.StudentID, "is_present": true}},
		})
		if err != nil {
			return err
		}
		_, err = h.enrollments.UpdateOne(ctx, bson.M{"_id": enr.ID}, bson.M{
			"$set": bson.M{
				"progress.sessions_attended": attended,
				"progress.last_synced_at":    now,
				"updated_at":                 now,
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// GetAttendanceHistory lists finalized sheets of a class, newest first
func (h *AttendanceHandler) GetAttendanceHistory(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	filter := bson.M{"class_id": classID, "status": models.AttendanceFinalized}
	dateRange := bson.M{}
	if from := r.URL.Query().Get("from"); from != "" {
		fromDate, err := schedule.ParseDate(from)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dateRange["$gte"] = fromDate
	}
	if to := r.URL.Query().Get("to"); to != "" {
		toDate, err := schedule.ParseDate(to)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dateRange["$lte"] = toDate
	}
	if len(dateRange) > 0 {
		filter["session_date"] = dateRange
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := h.collection.Find(ctx, filter, options.Find().SetSort(bson.M{"session_date": -1}))
	if err != nil {
		http.Error(w, "Failed to fetch attendance history", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var records []models.AttendanceRecord
	if err := cursor.All(ctx, &records); err != nil {
		http.Error(w, "Error decoding attendance history", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// GetClassAttendanceOverview aggregates per-student attendance rates
func (h *AttendanceHandler) GetClassAttendanceOverview(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	totalSessions, err := h.collection.CountDocuments(ctx, bson.M{
		"class_id": classID,
		"status":   models.AttendanceFinalized,
	})
	if err != nil {
		http.Error(w, "Failed to count sessions", http.StatusInternalServerError)
		return
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "class_id", Value: classID},
			{Key: "status", Value: models.AttendanceFinalized},
		}}},
		{{Key: "$unwind", Value: "$records"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$records.student_id"},
			{Key: "attended_sessions", Value: bson.D{{Key: "$sum", Value: bson.D{
				{Key: "$cond", Value: bson.A{"$records.is_present", 1, 0}},
			}}}},
			{Key: "total_sessions", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: "users"},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "student"},
		}}},
		{{Key: "$unwind", Value: "$student"}},
		{{Key: "$project", Value: bson.D{
			{Key: "student_id", Value: "$_id"},
			{Key: "name", Value: "$student.display_name"},
			{Key: "email", Value: "$student.email"},
			{Key: "attended_sessions", Value: 1},
			{Key: "total_sessions", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "attended_sessions", Value: -1}}}},
	}

	cursor, err := h.collection.Aggregate(ctx, pipeline)
	if err != nil {
		http.Error(w, "Failed to aggregate attendance", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var stats []bson.M
	if err := cursor.All(ctx, &stats); err != nil {
		http.Error(w, "Error decoding attendance stats", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_sessions": totalSessions,
		"students_stats": stats,
	})
}
