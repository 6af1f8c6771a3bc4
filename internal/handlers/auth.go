package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/loopinhq/loopin/internal/identity"
	"github.com/loopinhq/loopin/internal/models"
	"github.com/loopinhq/loopin/internal/store"
)

type AuthHandler struct {
	store store.Store
}

func NewAuthHandler(st store.Store) *AuthHandler {
	return &AuthHandler{store: st}
}

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

func generateToken(profile *models.Profile) (string, error) {
	claims := jwt.MapClaims{
		"sub":   profile.ID,
		"email": profile.Email,
		"exp":   time.Now().Add(7 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// currentUser pulls the authenticated user id set by the auth middleware.
func currentUser(c *gin.Context) (string, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := raw.(string)
	return id, ok && id != ""
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var input struct {
		Email       string `json:"email" binding:"required,email"`
		Password    string `json:"password" binding:"required,min=6"`
		DisplayName string `json:"display_name" binding:"max=50"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid email and a password of at least 6 characters are required"})
		return
	}

	if _, err := h.store.ProfileByEmail(c.Request.Context(), input.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register"})
		return
	}

	profile := models.Profile{
		Email:    input.Email,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if input.DisplayName != "" {
		profile.DisplayName = &input.DisplayName
	}

	if err := h.store.CreateProfile(c.Request.Context(), &profile); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	token, err := generateToken(&profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, models.AuthResponse{Token: token, Profile: profile})
}

// Login handles email/password login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	profile, err := h.store.ProfileByEmail(c.Request.Context(), input.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := generateToken(profile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, models.AuthResponse{Token: token, Profile: *profile})
}

// GetMe returns the caller's profile plus the identity their next thread or
// post would be attributed to, honoring the anonymous query flag.
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	session := identity.Session{UserID: userID}
	if email, exists := c.Get("email"); exists {
		session.Email, _ = email.(string)
	}

	composer := identity.Composer{
		Session:   session,
		Anonymous: c.Query("anonymous") == "true",
	}

	// The profile row may lag registration; degrade to the session email
	// instead of failing.
	profile, err := h.store.ProfileByID(c.Request.Context(), userID)
	if err == nil {
		composer.Profile = profile
	}

	resp := gin.H{"posting_as": composer.PostingAs()}
	if profile != nil {
		resp["profile"] = profile
	}
	c.JSON(http.StatusOK, resp)
}
