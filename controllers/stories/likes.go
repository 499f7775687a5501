package stories

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"story-share-backend/controllers/authentication"
	"story-share-backend/controllers/respond"
	"story-share-backend/models/story"
	"story-share-backend/models/users"
)

// LikeStory records a like and bumps the story's counter in one
// transaction. The (user, story) composite key keeps concurrent duplicate
// attempts down to exactly one success; the pre-check only provides the
// friendly error on the common path.
func LikeStory(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := authentication.ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	id, err := storyID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	if claims.Email == "" {
		respond.Error(w, http.StatusBadRequest, "User email not found")
		return
	}
	user, err := users.GetByEmail(db, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		logrus.WithError(err).Error("like: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var existing story.Like
	err = db.Where("user_id = ? AND story_id = ?", user.ID, id).First(&existing).Error
	if err == nil {
		respond.Error(w, http.StatusBadRequest, "You have already liked this story")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).Error("like: lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&story.Like{UserID: user.ID, StoryID: id}).Error; err != nil {
			return err
		}
		result := tx.Model(&story.Story{}).Where("id = ?", id).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			// Lost a race with a concurrent like by the same user.
			respond.Error(w, http.StatusBadRequest, "You have already liked this story")
		case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, gorm.ErrForeignKeyViolated):
			respond.Error(w, http.StatusNotFound, "Story not found")
		default:
			logrus.WithError(err).Error("like: transaction failed")
			respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	var updated story.Story
	if err := db.Preload("Author", selectPublicUser).First(&updated, id).Error; err != nil {
		logrus.WithError(err).Error("like: reload failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	notifyStoryOwner(db, updated.AuthorID, fmt.Sprintf("%s liked your story", user.Username))

	respond.JSON(w, http.StatusOK, updated)
}
