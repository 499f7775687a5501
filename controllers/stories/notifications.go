package stories

import (
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"story-share-backend/controllers/authentication"
	"story-share-backend/controllers/respond"
	"story-share-backend/models/story"
)

// notifyStoryOwner records a notification for the story author. Failures
// are logged and swallowed; notifications never block the interaction
// that triggered them.
func notifyStoryOwner(db *gorm.DB, userID uint, message string) {
	notification := story.Notification{
		UserID:  userID,
		Message: message,
	}
	if err := db.Create(&notification).Error; err != nil {
		logrus.WithError(err).Warn("failed to record notification")
	}
}

// GetNotifications returns the authenticated user's notifications,
// newest first.
func GetNotifications(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := authentication.ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var notifications []story.Notification
	err = db.Where("user_id = ?", claims.UserID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		logrus.WithError(err).Error("notifications: query failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the user's own notifications as read.
func MarkNotificationRead(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := authentication.ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	result := db.Model(&story.Notification{}).
		Where("id = ? AND user_id = ?", id, claims.UserID).
		Update("is_read", true)
	if result.Error != nil {
		logrus.WithError(result.Error).Error("notifications: update failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if result.RowsAffected == 0 {
		respond.Error(w, http.StatusNotFound, "Notification not found")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
