package main

import (
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"story-share-backend/config"
	"story-share-backend/controllers/authentication"
	"story-share-backend/controllers/httpCors"
	"story-share-backend/controllers/respond"
	"story-share-backend/controllers/stories"
	"story-share-backend/models/story"
	"story-share-backend/models/users"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := config.InitDB(); err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	err := config.DB.AutoMigrate(
		&users.User{},
		&story.Story{},
		&story.Comment{},
		&story.Like{},
		&story.Category{},
		&story.Notification{},
	)
	if err != nil {
		logrus.WithError(err).Fatal("database migration failed")
	}

	sqlDB, err := config.DB.DB()
	if err != nil {
		logrus.WithError(err).Fatal("failed to get database handle")
	}
	if err := sqlDB.Ping(); err != nil {
		logrus.WithError(err).Fatal("database ping failed")
	}
	logrus.Info("database connection established")

	handler := httpCors.CorsSettings().Handler(requestLogger(newRouter(config.DB)))

	logrus.WithField("port", port).Info("server listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func newRouter(db *gorm.DB) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", handleHome).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", func(w http.ResponseWriter, req *http.Request) {
		authentication.Signup(w, req, db)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		authentication.Login(w, req, db)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", authentication.Logout).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/me", func(w http.ResponseWriter, req *http.Request) {
		authentication.Me(w, req, db)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/change-password", func(w http.ResponseWriter, req *http.Request) {
		authentication.ChangePassword(w, req, db)
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/stories", func(w http.ResponseWriter, req *http.Request) {
		stories.CreateStory(w, req, db)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/stories", func(w http.ResponseWriter, req *http.Request) {
		stories.ListStories(w, req, db)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/stories/{id}", func(w http.ResponseWriter, req *http.Request) {
		stories.GetStory(w, req, db)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/stories/{id}/like", func(w http.ResponseWriter, req *http.Request) {
		stories.LikeStory(w, req, db)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/stories/{id}/comment", func(w http.ResponseWriter, req *http.Request) {
		stories.CommentStory(w, req, db)
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/notifications", func(w http.ResponseWriter, req *http.Request) {
		stories.GetNotifications(w, req, db)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/notifications/read", func(w http.ResponseWriter, req *http.Request) {
		stories.MarkNotificationRead(w, req, db)
	}).Methods(http.MethodPost)

	return r
}

func handleHome(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)

		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start),
		}).Info("request handled")
	})
}
