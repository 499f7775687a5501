package stories

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"story-share-backend/controllers/authentication"
	"story-share-backend/controllers/respond"
	"story-share-backend/models/story"
	"story-share-backend/models/users"
)

type commentRequest struct {
	Content string `json:"content"`
}

// CommentStory inserts a comment and bumps the story's counter in one
// transaction, then returns the comment together with the story carrying
// its five most recent comments.
func CommentStory(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
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

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respond.Error(w, http.StatusBadRequest, "Comment content is required")
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
		logrus.WithError(err).Error("comment: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	comment := story.Comment{
		StoryID: id,
		UserID:  user.ID,
		Content: req.Content,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		result := tx.Model(&story.Story{}).Where("id = ?", id).
			UpdateColumn("comments_count", gorm.Expr("comments_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, gorm.ErrForeignKeyViolated) {
			respond.Error(w, http.StatusNotFound, "Story not found")
			return
		}
		logrus.WithError(err).Error("comment: transaction failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := db.Preload("User", selectPublicUser).First(&comment, comment.ID).Error; err != nil {
		logrus.WithError(err).Error("comment: reload failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	updated, err := storyWithRecentComments(db, id)
	if err != nil {
		logrus.WithError(err).Error("comment: story reload failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	notifyStoryOwner(db, updated.AuthorID, fmt.Sprintf("%s commented on your story", user.Username))

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"comment": comment,
		"story":   updated,
	})
}

// storyWithRecentComments reloads a story with its author and five most
// recent comments. The cap is a payload limit; every comment stays stored.
func storyWithRecentComments(db *gorm.DB, id uint) (story.Story, error) {
	var s story.Story
	err := db.Preload("Author", selectPublicUser).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC").Limit(5)
		}).
		Preload("Comments.User", selectPublicUser).
		First(&s, id).Error
	return s, err
}
