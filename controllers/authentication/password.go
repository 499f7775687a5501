package authentication

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"story-share-backend/controllers/respond"
	"story-share-backend/models/users"
)

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the stored hash after verifying the current
// password against it.
func ChangePassword(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.NewPassword == "" {
		respond.Error(w, http.StatusBadRequest, "New password is required")
		return
	}

	user, err := users.GetByEmail(db, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		logrus.WithError(err).Error("change password: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Current password is incorrect")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("change password: hashing failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user.Password = string(hashed)
	if err := db.Save(user).Error; err != nil {
		logrus.WithError(err).Error("change password: update failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}
