package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"quizmaster/services"

	"github.com/gin-gonic/gin"
)

// respondError translates service errors into HTTP responses. Unclassified
// failures become a generic 500 so internal detail never leaks.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidQuiz),
		errors.Is(err, services.ErrInactiveQuiz):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// currentActor reads the identity AuthMiddleware stored in the context.
func currentActor(c *gin.Context) (services.Actor, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Actor{}, false
	}
	role, _ := c.Get("user_role")
	roleStr, _ := role.(string)
	return services.Actor{ID: userID.(uint), Role: roleStr}, true
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func parseQueryInt(c *gin.Context, name string, defaultValue int) int {
	value := c.Query(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
