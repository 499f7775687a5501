package stories

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"story-share-backend/controllers/authentication"
	"story-share-backend/controllers/respond"
	"story-share-backend/models/story"
	"story-share-backend/models/users"
)

// selectPublicUser limits preloaded user rows to the identity fields
// exposed alongside stories and comments.
func selectPublicUser(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "username")
}

func storyID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	return uint(id), err
}

type createStoryRequest struct {
	Title      string   `json:"title"`
	Preview    string   `json:"preview"`
	Content    string   `json:"content"`
	Categories []string `json:"categories"`
}

// CreateStory publishes a new story for the authenticated user. Category
// names are resolved find-or-create; sharing a name across stories reuses
// the same row.
func CreateStory(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := authentication.ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	var req createStoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Title == "" || req.Preview == "" || req.Content == "" {
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	user, err := users.GetByEmail(db, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		logrus.WithError(err).Error("create story: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	categories, err := findOrCreateCategories(db, req.Categories)
	if err != nil {
		logrus.WithError(err).Error("create story: category resolution failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	newStory := story.Story{
		Title:      req.Title,
		Preview:    req.Preview,
		Content:    req.Content,
		AuthorID:   user.ID,
		Categories: categories,
	}
	if err := db.Create(&newStory).Error; err != nil {
		logrus.WithError(err).Error("create story: insert failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var created story.Story
	err = db.Preload("Author", selectPublicUser).
		Preload("Categories").
		First(&created, newStory.ID).Error
	if err != nil {
		logrus.WithError(err).Error("create story: reload failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, created)
}

// findOrCreateCategories resolves category names to rows. The insert is a
// single conflict-ignore statement, so two requests racing on the same new
// name both end up attached to one row.
func findOrCreateCategories(db *gorm.DB, names []string) ([]story.Category, error) {
	categories := make([]story.Category, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		category := story.Category{Name: name}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).Create(&category).Error
		if err != nil {
			return nil, err
		}
		if category.ID == 0 {
			// Insert was a no-op: the name already exists.
			if err := db.Where("name = ?", name).First(&category).Error; err != nil {
				return nil, err
			}
		}
		categories = append(categories, category)
	}
	return categories, nil
}

// ListStories returns all stories newest-first with author and categories.
// Comments are detail-view only.
func ListStories(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	var storyList []story.Story
	err := db.Preload("Author", selectPublicUser).
		Preload("Categories").
		Order("created_at DESC, id DESC").
		Find(&storyList).Error
	if err != nil {
		logrus.WithError(err).Error("list stories: query failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, storyList)
}

// Stories carry no separate publish step; publishedDate is the creation
// timestamp surfaced under the name the detail view expects.
type storyWithPublishedDate struct {
	story.Story
	PublishedDate time.Time `json:"publishedDate"`
}

// GetStory returns one story with its author, all comments newest-first
// (with commenter identity) and categories.
func GetStory(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	id, err := storyID(r)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid story ID")
		return
	}

	var current story.Story
	err = db.Preload("Author", selectPublicUser).
		Preload("Comments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Comments.User", selectPublicUser).
		Preload("Categories").
		First(&current, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "Story not found")
			return
		}
		logrus.WithError(err).Error("get story: query failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, storyWithPublishedDate{
		Story:         current,
		PublishedDate: current.CreatedAt,
	})
}
