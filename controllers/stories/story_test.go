package stories

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-share-backend/models/story"
)

func TestCreateStoryRequiresAuth(t *testing.T) {
	db := setupTestDB(t)

	req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, map[string]interface{}{
		"title": "t", "preview": "p", "content": "c",
	}))
	rec := httptest.NewRecorder()
	CreateStory(rec, req, db)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Unauthorized", errorMessage(t, rec))
}

func TestCreateStory(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")

	req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, map[string]interface{}{
		"title":      "First story",
		"preview":    "A preview",
		"content":    "The full content",
		"categories": []string{"fiction", "travel"},
	}))
	authorize(t, req, author)
	rec := httptest.NewRecorder()
	CreateStory(rec, req, db)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created story.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "First story", created.Title)
	assert.Equal(t, author.ID, created.AuthorID)
	assert.Equal(t, "al", created.Author.Username)
	assert.Len(t, created.Categories, 2)
	assert.Zero(t, created.LikesCount)
	assert.Zero(t, created.CommentsCount)
}

func TestCreateStoryMissingFields(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")

	req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, map[string]interface{}{
		"title": "only a title",
	}))
	authorize(t, req, author)
	rec := httptest.NewRecorder()
	CreateStory(rec, req, db)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields", errorMessage(t, rec))
}

func TestCreateStoryUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	ghost := createTestUser(t, db, "Ghost", "ghost@x.com", "ghost")
	require.NoError(t, db.Unscoped().Delete(&ghost).Error)

	req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, map[string]interface{}{
		"title": "t", "preview": "p", "content": "c",
	}))
	authorize(t, req, ghost)
	rec := httptest.NewRecorder()
	CreateStory(rec, req, db)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorMessage(t, rec))
}

func TestCategoriesAreSharedAcrossStories(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")

	for _, title := range []string{"one", "two"} {
		req := httptest.NewRequest(http.MethodPost, "/api/stories", jsonBody(t, map[string]interface{}{
			"title":      title,
			"preview":    "p",
			"content":    "c",
			"categories": []string{"fiction"},
		}))
		authorize(t, req, author)
		rec := httptest.NewRecorder()
		CreateStory(rec, req, db)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var count int64
	require.NoError(t, db.Model(&story.Category{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "find-or-create must reuse the existing category row")
}

func TestListStoriesNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")

	older := story.Story{
		Title: "older", Preview: "p", Content: "c", AuthorID: author.ID,
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(&older).Error)
	newer := story.Story{
		Title: "newer", Preview: "p", Content: "c", AuthorID: author.ID,
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&newer).Error)

	req := httptest.NewRequest(http.MethodGet, "/api/stories", nil)
	rec := httptest.NewRecorder()
	ListStories(rec, req, db)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []story.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Title)
	assert.Equal(t, "older", list[1].Title)
	assert.Equal(t, "al", list[0].Author.Username)
	assert.Empty(t, list[0].Comments, "list view carries no comments")
}

func TestGetStoryRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")
	created := createTestStory(t, db, author, "Round trip")

	req := storyRequest(t, http.MethodGet, "", created.ID, nil)
	rec := httptest.NewRecorder()
	GetStory(rec, req, db)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Round trip", body["title"])
	assert.Equal(t, "Round trip preview", body["preview"])
	assert.Equal(t, "Round trip content", body["content"])
	assert.Equal(t, body["createdAt"], body["publishedDate"],
		"publishedDate is the creation timestamp")
}

func TestGetStoryCommentsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	author := createTestUser(t, db, "Al", "a@x.com", "al")
	commenter := createTestUser(t, db, "Bo", "b@x.com", "bo")
	s := createTestStory(t, db, author, "Commented")

	earlier := story.Comment{
		StoryID: s.ID, UserID: commenter.ID, Content: "first",
		CreatedAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, db.Create(&earlier).Error)
	later := story.Comment{
		StoryID: s.ID, UserID: commenter.ID, Content: "second",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&later).Error)

	req := storyRequest(t, http.MethodGet, "", s.ID, nil)
	rec := httptest.NewRecorder()
	GetStory(rec, req, db)
	require.Equal(t, http.StatusOK, rec.Code)

	var got story.Story
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Comments, 2)
	assert.Equal(t, "second", got.Comments[0].Content)
	assert.Equal(t, "first", got.Comments[1].Content)
	assert.Equal(t, "bo", got.Comments[0].User.Username)
}

func TestGetStoryNotFound(t *testing.T) {
	db := setupTestDB(t)

	req := storyRequest(t, http.MethodGet, "", 999, nil)
	rec := httptest.NewRecorder()
	GetStory(rec, req, db)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Story not found", errorMessage(t, rec))
}
