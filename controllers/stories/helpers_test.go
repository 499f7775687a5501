package stories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"story-share-backend/controllers/authentication"
	"story-share-backend/models/story"
	"story-share-backend/models/users"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&users.User{},
		&story.Story{},
		&story.Comment{},
		&story.Like{},
		&story.Category{},
		&story.Notification{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, email, username string) users.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := users.User{Name: name, Email: email, Username: username, Password: string(hashed)}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createTestStory(t *testing.T, db *gorm.DB, author users.User, title string) story.Story {
	t.Helper()

	s := story.Story{
		Title:    title,
		Preview:  title + " preview",
		Content:  title + " content",
		AuthorID: author.ID,
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func authorize(t *testing.T, req *http.Request, user users.User) {
	t.Helper()

	token, err := authentication.GenerateToken(user)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()

	payload, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

// storyRequest builds a request routed at a single story, with the {id}
// path variable populated the way the router would.
func storyRequest(t *testing.T, method, suffix string, id uint, body io.Reader) *http.Request {
	t.Helper()

	target := fmt.Sprintf("/api/stories/%d%s", id, suffix)
	req := httptest.NewRequest(method, target, body)
	return mux.SetURLVars(req, map[string]string{"id": fmt.Sprint(id)})
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}
