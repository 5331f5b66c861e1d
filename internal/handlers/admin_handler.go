package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/models"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
)

type AdminHandler struct {
	classes     *mongo.Collection
	attendances *mongo.Collection
	users       *mongo.Collection
}

func NewAdminHandler(client *mongo.Client, dbName string) *AdminHandler {
	db := client.Database(dbName)
	return &AdminHandler{
		classes:     db.Collection("classes"),
		attendances: db.Collection("attendances"),
		users:       db.Collection("users"),
	}
}

// ExportAttendanceReport writes an xlsx sheet with one row per student and
// one column per finalized session of the class
func (h *AdminHandler) ExportAttendanceReport(w http.ResponseWriter, r *http.Request) {
	classID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var cls models.Class
	if err := h.classes.FindOne(ctx, bson.M{"_id": classID}).Decode(&cls); err != nil {
		http.Error(w, "Class not found", http.StatusNotFound)
		return
	}

	cursor, err := h.attendances.Find(ctx,
		bson.M{"class_id": classID, "status": models.AttendanceFinalized},
		options.Find().SetSort(bson.M{"session_date": 1}))
	if err != nil {
		http.Error(w, "Failed to fetch attendance", http.StatusInternalServerError)
		return
	}
	defer cursor.Close(ctx)

	var sessions []models.AttendanceRecord
	if err := cursor.All(ctx, &sessions); err != nil {
		http.Error(w, "Error decoding attendance", http.StatusInternalServerError)
		return
	}

	// Collect the students seen across all sessions, preserving order
	var studentIDs []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	presence := map[primitive.ObjectID]map[int]bool{}
	for _, session := range sessions {
		for _, entry := range session.Records {
			if !seen[entry.StudentID] {
				seen[entry.StudentID] = true
				studentIDs = append(studentIDs, entry.StudentID)
				presence[entry.StudentID] = map[int]bool{}
			}
			presence[entry.StudentID][session.SessionNumber] = entry.IsPresent
		}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "A1", "Student")
	f.SetCellValue(sheet, "B1", "Email")
	for i, session := range sessions {
		cell, _ := excelize.CoordinatesToCellName(3+i, 1)
		f.SetCellValue(sheet, cell,
			fmt.Sprintf("S%d (%s)", session.SessionNumber, schedule.FormatDate(session.SessionDate)))
	}

	for row, studentID := range studentIDs {
		name := studentID.Hex()
		email := ""
		var usr models.User
		if err := h.users.FindOne(ctx, bson.M{"_id": studentID}).Decode(&usr); err == nil {
			name = usr.DisplayName
			email = usr.Email
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row+2), name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row+2), email)
		for i, session := range sessions {
			mark := "absent"
			if presence[studentID][session.SessionNumber] {
				mark = "present"
			}
			cell, _ := excelize.CoordinatesToCellName(3+i, row+2)
			f.SetCellValue(sheet, cell, mark)
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendance-%s.xlsx", cls.ClassCode))
	if err := f.Write(w); err != nil {
		log.Printf("Failed to write attendance report: %v", err)
	}
}
