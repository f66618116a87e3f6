package api

import (
	"carcatalog/internal/domain"  // Importing domain models
	"carcatalog/internal/service" // Business services
	"carcatalog/internal/utils"   // JWT utility functions
	"errors"                      // Sentinel error matching
	"net/http"                    // HTTP status codes
	"strconv"                     // String conversion

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`    // Username must be provided
	Email    string `json:"email" binding:"required,email"` // Email must be provided and well-formed
	Password string `json:"password" binding:"required"`    // Password must be provided
}

// LoginRequest is the login payload; email or username identifies the
// account, email is preferred when both are present
type LoginRequest struct {
	Username string `json:"username"`                    // Optional username
	Email    string `json:"email"`                       // Optional email
	Password string `json:"password" binding:"required"` // Password must be provided
}

// ChangePasswordRequest is the password change payload
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"` // Current password
	NewPassword string `json:"newPassword" binding:"required"` // Replacement password
}

// RegisterHandler creates a new account
func RegisterHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		user, err := auth.Register(req.Username, req.Email, req.Password)
		// Map the distinguishing conflict outcomes to bad request
		if errors.Is(err, service.ErrUsernameTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
			return
		}
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}
		// Log the new account
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user ID
			"username": user.Username, // Username
		}).Info("User registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler authenticates a user and returns a JWT token along with the
// account's public fields
func LoginHandler(auth *service.AuthService, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || (req.Username == "" && req.Email == "") {
			// If binding fails or no identifier was supplied, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Resolve the account by email or username; both failures collapse
		// into one generic outcome
		var user *domain.User
		var err error
		if req.Email != "" {
			user, err = auth.LoginByEmail(req.Email, req.Password)
		} else {
			user, err = auth.LoginByUsername(req.Username, req.Password)
		}
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log in"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.IsAdmin, jwtSecret)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return the token and the account's public fields
		c.JSON(http.StatusOK, gin.H{
			"token":    token,         // JWT token
			"id":       user.ID,       // Account ID
			"username": user.Username, // Username
			"email":    user.Email,    // Email
			"isAdmin":  user.IsAdmin,  // Admin flag
		})
	}
}

// ChangePasswordHandler changes the password of the account in the path
func ChangePasswordHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32) // Parse account id from path
		if err != nil {
			// If the id is not numeric, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		var req ChangePasswordRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Change the password; unknown account and wrong old password are one outcome
		if err := auth.ChangePassword(uint(id), req.OldPassword, req.NewPassword); err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Old password is incorrect"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
			return
		}
		// Log the password change
		logrus.WithFields(logrus.Fields{
			"user_id": id, // Account ID
		}).Info("Password changed")
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
