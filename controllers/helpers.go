package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/EmbargoMedia/ObligeWorks-sub000/config"
	"github.com/EmbargoMedia/ObligeWorks-sub000/middleware"
	"github.com/EmbargoMedia/ObligeWorks-sub000/models"
)

// errorResponse writes the standard error envelope
func errorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// isUniqueViolation reports whether err is a unique-constraint failure
// (works with both PostgreSQL and SQLite)
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

// validationError writes a 400 with binding details
func validationError(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": details,
		},
	})
}

// requireUser resolves the authenticated user from the JWT subject.
// Writes the error response and returns ok=false when the token is missing
// or the user has no profile yet.
func requireUser(c *gin.Context) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	db := config.GetDB()
	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		errorResponse(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}

	return &user, true
}

// requireStaff resolves the authenticated user and rejects non-staff
func requireStaff(c *gin.Context) (*models.User, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}

	if user.Role != middleware.RoleStaff {
		errorResponse(c, http.StatusForbidden, "FORBIDDEN", "Only staff can perform this action")
		return nil, false
	}

	return user, true
}
