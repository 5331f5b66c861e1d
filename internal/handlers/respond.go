package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/schedule"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/scheduling"
)

// validate checks request payload structs; shared across handlers.
var validate = validator.New()

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDomainError maps the scheduling error kinds onto HTTP statuses.
// Unrecognized errors become a 500 with a generic message.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scheduling.ErrClassNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scheduling.ErrNotEnrolled),
		errors.Is(err, scheduling.ErrClassNotActive),
		errors.Is(err, schedule.ErrInvalidSchedule),
		errors.Is(err, schedule.ErrDateNotInSchedule),
		errors.Is(err, schedule.ErrSessionNumberOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
