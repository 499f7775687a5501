package authentication

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"story-share-backend/config"
	"story-share-backend/controllers/respond"
	"story-share-backend/models/users"
)

var JwtKey = []byte(os.Getenv("JWT_SECRET"))

const SessionName = "story-session"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Claims struct {
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	jwt.StandardClaims
}

// GenerateToken signs a 24h HS256 token carrying the user's id and email.
func GenerateToken(user users.User) (string, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JwtKey)
}

// ValidateToken restores the session for a request. API clients send the
// token in the Authorization header; browser clients carry it in the
// cookie session written at login. There is no server-side session store:
// the verified claims are the session.
func ValidateToken(r *http.Request) (*Claims, error) {
	var tokenString string
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
	} else if session, err := config.Store.Get(r, SessionName); err == nil {
		if saved, ok := session.Values["token"].(string); ok {
			tokenString = saved
		}
	}
	if tokenString == "" {
		return nil, errors.New("authorization required")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return JwtKey, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// Signup registers a new user. Email and username are unique across users;
// the password is stored only as a bcrypt hash.
func Signup(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Username == "" {
		respond.Error(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !emailPattern.MatchString(req.Email) {
		respond.Error(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	var existing users.User
	err := db.Where("email = ? OR username = ?", req.Email, req.Username).First(&existing).Error
	if err == nil {
		respond.Error(w, http.StatusBadRequest, "User already exists")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logrus.WithError(err).Error("signup: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logrus.WithError(err).Error("signup: password hashing failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user := users.User{
		Name:     req.Name,
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
	}
	if err := db.Create(&user).Error; err != nil {
		// The unique indexes stay authoritative under concurrent signups.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respond.Error(w, http.StatusBadRequest, "User already exists")
			return
		}
		logrus.WithError(err).Error("signup: user insert failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]interface{}{
		"message": "User created successfully",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues the session token. The token is
// returned in the body and also written to the cookie session so browser
// clients carry it implicitly.
func Login(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	if r.Method != http.MethodPost {
		respond.Error(w, http.StatusMethodNotAllowed, "Invalid request method")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if req.Email == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user users.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		respond.Error(w, http.StatusUnauthorized, "No user found with this email")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respond.Error(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	tokenString, err := GenerateToken(user)
	if err != nil {
		logrus.WithError(err).Error("login: token generation failed")
		respond.Error(w, http.StatusInternalServerError, "Error generating token")
		return
	}

	session, _ := config.Store.Get(r, SessionName)
	session.Values["token"] = tokenString
	if err := session.Save(r, w); err != nil {
		logrus.WithError(err).Warn("login: failed to write session cookie")
	}

	respond.JSON(w, http.StatusOK, map[string]string{"token": tokenString})
}

// Logout drops the cookie session. Tokens remain valid until they expire;
// clients holding one in the Authorization header simply stop sending it.
func Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := config.Store.Get(r, SessionName)
	delete(session.Values, "token")
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		logrus.WithError(err).Warn("logout: failed to clear session cookie")
	}

	respond.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me returns the profile of the authenticated user.
func Me(w http.ResponseWriter, r *http.Request, db *gorm.DB) {
	claims, err := ValidateToken(r)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := users.GetByEmail(db, claims.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respond.Error(w, http.StatusNotFound, "User not found")
			return
		}
		logrus.WithError(err).Error("me: user lookup failed")
		respond.Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respond.JSON(w, http.StatusOK, user)
}
