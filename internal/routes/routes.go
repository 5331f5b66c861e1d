package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/config"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/handlers"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/middleware"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/scheduling"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/store"
	"github.com/SmithSonNguyen/UTE-WebsiteLuyenThiTiengAnh-BE/internal/utils"
)

func SetupRouter(client *mongo.Client, cfg config.Config) *mux.Router {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Server is healthy"))
	}).Methods("GET")

	stores := store.NewStores(client, cfg.DatabaseName)
	schedulingService := scheduling.NewService(
		stores.Classes, stores.Enrollments, stores.Attendance, stores.MakeupRequests, stores.Users)

	smtp := utils.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	}

	userHandler := handlers.NewUserHandler(client, cfg.DatabaseName, smtp, "http://localhost:"+cfg.Port)
	courseHandler := handlers.NewCourseHandler(client, cfg.DatabaseName)
	classHandler := handlers.NewClassHandler(client, cfg.DatabaseName)
	enrollmentHandler := handlers.NewEnrollmentHandler(client, cfg.DatabaseName, schedulingService)
	attendanceHandler := handlers.NewAttendanceHandler(client, cfg.DatabaseName)
	makeupHandler := handlers.NewMakeupHandler(client, cfg.DatabaseName, schedulingService)
	adminHandler := handlers.NewAdminHandler(client, cfg.DatabaseName)

	admin := middleware.AdminAuthMiddleware
	instructor := middleware.InstructorAuthMiddleware
	student := middleware.StudentAuthMiddleware
	authed := middleware.AuthMiddleware

	// Users
	router.HandleFunc("/api/users/signup", userHandler.Signup).Methods("POST")
	router.HandleFunc("/api/users/verify", userHandler.Verify).Methods("GET")
	router.HandleFunc("/api/users/login", userHandler.Login).Methods("POST")
	router.HandleFunc("/api/users/logout", userHandler.Logout).Methods("POST")
	router.Handle("/api/users/me", authed(http.HandlerFunc(userHandler.Me))).Methods("GET")

	// Courses and reviews
	router.Handle("/api/courses", admin(http.HandlerFunc(courseHandler.CreateCourse))).Methods("POST")
	router.HandleFunc("/api/courses", courseHandler.GetCourses).Methods("GET")
	router.HandleFunc("/api/courses/{id}", courseHandler.GetCourseByID).Methods("GET")
	router.Handle("/api/courses/{id}", admin(http.HandlerFunc(courseHandler.UpdateCourse))).Methods("PUT")
	router.Handle("/api/courses/{id}/archive", admin(http.HandlerFunc(courseHandler.ArchiveCourse))).Methods("POST")
	router.Handle("/api/courses/{id}", admin(http.HandlerFunc(courseHandler.ArchiveCourse))).Methods("DELETE")
	router.HandleFunc("/api/courses/{id}/reviews", courseHandler.GetCourseReviews).Methods("GET")
	router.Handle("/api/reviews", student(http.HandlerFunc(courseHandler.CreateReview))).Methods("POST")

	// Classes
	router.Handle("/api/classes", admin(http.HandlerFunc(classHandler.CreateClass))).Methods("POST")
	router.HandleFunc("/api/classes", classHandler.GetClasses).Methods("GET")
	router.HandleFunc("/api/classes/upcoming", classHandler.GetUpcomingClasses).Methods("GET")
	router.HandleFunc("/api/classes/{id}", classHandler.GetClassByID).Methods("GET")
	router.Handle("/api/classes/{id}/session-number", authed(http.HandlerFunc(classHandler.GetSessionNumber))).Methods("GET")

	// Enrollments
	router.Handle("/api/enrollments", student(http.HandlerFunc(enrollmentHandler.Enroll))).Methods("POST")
	router.Handle("/api/enrollments/my-schedule", student(http.HandlerFunc(enrollmentHandler.GetMySchedule))).Methods("GET")
	router.Handle("/api/enrollments/class-schedule", student(http.HandlerFunc(enrollmentHandler.GetClassSchedule))).Methods("GET")

	// Attendance
	router.Handle("/api/attendance/class/{id}/students", instructor(http.HandlerFunc(attendanceHandler.GetClassStudents))).Methods("GET")
	router.Handle("/api/attendance/class/{id}", instructor(http.HandlerFunc(attendanceHandler.GetAttendanceByDate))).Methods("GET")
	router.Handle("/api/attendance/class/{id}", instructor(http.HandlerFunc(attendanceHandler.SaveAttendance))).Methods("POST")
	router.Handle("/api/attendance/class/{id}/history", instructor(http.HandlerFunc(attendanceHandler.GetAttendanceHistory))).Methods("GET")
	router.Handle("/api/attendance/class/{id}/overview", instructor(http.HandlerFunc(attendanceHandler.GetClassAttendanceOverview))).Methods("GET")

	// Makeup requests
	router.Handle("/api/makeup-requests/available/{classId}/{sessionNumber}", student(http.HandlerFunc(makeupHandler.GetAvailableMakeupSlots))).Methods("GET")
	router.Handle("/api/makeup-requests", student(http.HandlerFunc(makeupHandler.RegisterMakeup))).Methods("POST")
	router.Handle("/api/makeup-requests", student(http.HandlerFunc(makeupHandler.GetMakeupRequests))).Methods("GET")
	router.Handle("/api/makeup-requests/{id}", student(http.HandlerFunc(makeupHandler.CancelMakeupRequest))).Methods("DELETE")

	// Admin reports
	router.Handle("/api/admin/reports/attendance/{id}", admin(http.HandlerFunc(adminHandler.ExportAttendanceReport))).Methods("GET")

	return router
}
