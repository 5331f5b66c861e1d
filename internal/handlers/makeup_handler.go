package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/middleware"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/scheduling"
)

type MakeupHandler struct {
	collection  *mongo.Collection
	enrollments *mongo.Collection
	attendances *mongo.Collection
	scheduling  *scheduling.Service
}

func NewMakeupHandler(client *mongo.Client, dbName string, svc *scheduling.Service) *MakeupHandler {
	db := client.Database(dbName)
	return &MakeupHandler{
		collection:  db.Collection("makeup_requests"),
		enrollments: db.Collection("enrollments"),
		attendances: db.Collection("attendances"),
		scheduling:  svc,
	}
}

// GetAvailableMakeupSlots lists sibling-class slots for a missed session
func (h *MakeupHandler) GetAvailableMakeupSlots(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	originalClassID, err := primitive.ObjectIDFromHex(vars["classId"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	sessionNumber, err := strconv.Atoi(vars["sessionNumber"])
	if err != nil || sessionNumber < 1 {
		http.Error(w, "Invalid session number", http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	result, err := h.scheduling.FindAvailableMakeupSlots(ctx, studentID, originalClassID, sessionNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type registerMakeupPayload struct {
	OriginalClassID string `json:"original_class_id" validate:"required"`
	SessionNumber   int    `json:"session_number" validate:"required,min=1"`
	MakeupClassID   string `json:"makeup_class_id" validate:"required"`
}

// RegisterMakeup commits the student to one of the offered slots
func (h *MakeupHandler) RegisterMakeup(w http.ResponseWriter, r *http.Request) {
	var payload registerMakeupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(payload); err != nil {
		http.Error(w, "Invalid makeup request: "+err.Error(), http.StatusBadRequest)
		return
	}

	originalClassID, err := primitive.ObjectIDFromHex(payload.OriginalClassID)
	if err != nil {
		http.Error(w, "Invalid original class ID", http.StatusBadRequest)
		return
	}
	makeupClassID, err := primitive.ObjectIDFromHex(payload.MakeupClassID)
	if err != nil {
		http.Error(w, "Invalid makeup class ID", http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	// Re-run the search so the chosen slot is validated against the same
	// rules (active status, enrollment, quota, future date) as the listing.
	result, err := h.scheduling.FindAvailableMakeupSlots(ctx, studentID, originalClassID, payload.SessionNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if result.RemainingChanges == 0 {
		http.Error(w, "No makeup changes remaining for this session", http.StatusConflict)
		return
	}
	var chosen *scheduling.MakeupSlot
	for i := range result.Slots {
		if result.Slots[i].ClassID == makeupClassID {
			chosen = &result.Slots[i]
			break
		}
	}
	if chosen == nil {
		http.Error(w, "Selected class is not an available makeup slot", http.StatusConflict)
		return
	}

	// Attendance sheet of the missed session anchors the request
	var attendance models.AttendanceRecord
	err = h.attendances.FindOne(ctx, bson.M{
		"class_id":       originalClassID,
		"session_number": payload.SessionNumber,
	}).Decode(&attendance)
	if err != nil {
		http.Error(w, "Attendance record for the original session not found", http.StatusNotFound)
		return
	}

	slotDate, err := schedule.ParseDate(chosen.Date)
	if err != nil {
		http.Error(w, "Invalid slot date", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	request := models.MakeupRequest{
		ID:     primitive.NewObjectID(),
		UserID: studentID,
		OriginalSession: models.OriginalSession{
			ClassID:       originalClassID,
			SessionNumber: payload.SessionNumber,
			Date:          attendance.SessionDate,
			AttendanceID:  attendance.ID,
		},
		MakeupSlot: models.MakeupSlotRef{
			ClassID:       makeupClassID,
			SessionNumber: chosen.SessionNumber,
			Date:          slotDate,
			Time:          chosen.StartTime + " - " + chosen.EndTime,
		},
		Status:       models.MakeupScheduled,
		RegisteredAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := h.collection.InsertOne(ctx, request); err != nil {
		http.Error(w, "Failed to register makeup class", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, request)
}

// GetMakeupRequests lists the student's makeup requests, sweeping past
// scheduled slots to completed first
func (h *MakeupHandler) GetMakeupRequests(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := h.sweepCompleted(ctx, studentID); err != nil {
		log.Printf("makeup list: completed sweep failed for %s: %v", studentID.Hex(), err)
	}

	cursor, err := h.collection.Find(ctx, bson.M{"user_id": studentID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		http.Error(w, "Failed to fetch makeup requests", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var requests []models.MakeupRequest
	if err := cursor.All(ctx, &requests); err != nil {
		http.Error(w, "Error decoding makeup requests", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, requests)
}

// sweepCompleted flips scheduled requests whose slot end time has passed.
func (h *MakeupHandler) sweepCompleted(ctx context.Context, studentID primitive.ObjectID) error {
	cursor, err := h.collection.Find(ctx, bson.M{"user_id": studentID, "status": models.MakeupScheduled})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var scheduled []models.MakeupRequest
	if err := cursor.All(ctx, &scheduled); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, req := range scheduled {
		end, ok := slotEnd(req.MakeupSlot)
		if !ok || now.Before(end) {
			continue
		}
		_, err := h.collection.UpdateOne(ctx, bson.M{"_id": req.ID},
			bson.M{"$set": bson.M{"status": models.MakeupCompleted, "updated_at": now}})
		if err != nil {
			return err
		}
	}
	return nil
}

// slotEnd combines the slot date with the end half of its "HH:MM - HH:MM"
// window.
func slotEnd(slot models.MakeupSlotRef) (time.Time, bool) {
	parts := strings.Split(slot.Time, " - ")
	if len(parts) != 2 {
		return time.Time{}, false
	}
	end, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, false
	}
	date := schedule.DateOnly(slot.Date)
	return date.Add(time.Duration(end.Hour())*time.Hour + time.Duration(end.Minute())*time.Minute), true
}

// CancelMakeupRequest deletes one of the student's scheduled requests
func (h *MakeupHandler) CancelMakeupRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid makeup request ID", http.StatusBadRequest)
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	studentID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := h.collection.DeleteOne(ctx, bson.M{"_id": requestID, "user_id": studentID})
	if err != nil {
		http.Error(w, "Failed to cancel makeup request", http.StatusInternalServerError)
		return
	}
	if result.DeletedCount == 0 {
		http.Error(w, "Makeup request not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Makeup request cancelled"))
}
