package api

import (
	"net/http"
	"strconv"

	"spendwise/internal/domain"
	"spendwise/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondError converts a service error into the uniform failure envelope,
// mapping the failure kind to an HTTP status in one place.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindValidation, service.KindConflict:
		status = http.StatusBadRequest
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindAuthorization:
		status = http.StatusForbidden
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("Unexpected failure")
		message = "Internal server error"
	}
	c.JSON(status, gin.H{"success": false, "message": message})
}

// actorFromContext rebuilds the authenticated caller from the values the
// JWT middleware stored in the request context.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return service.Actor{}, false
	}
	role, _ := c.Get("role")
	roleStr, _ := role.(string)
	return service.Actor{ID: userID.(uint), Role: domain.Role(roleStr)}, true
}

// idParam parses the :id path parameter.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
