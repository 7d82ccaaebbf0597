package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/billdesk-api/internal/presentation/http/dto/response"
)

// GetUserEmail extracts the operator email from the Gin context
func GetUserEmail(c *gin.Context) string {
	email, exists := c.Get("user_email")
	if !exists {
		return ""
	}
	s, _ := email.(string)
	return s
}

// requireUser writes a 401 and returns false when no operator is authenticated
func requireUser(c *gin.Context) (string, bool) {
	userID := GetUserEmail(c)
	if userID == "" {
		response.Unauthorized(c, "User not authenticated")
		return "", false
	}
	return userID, true
}

// sessionParam parses the :id path parameter as a session UUID
func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// int64Param parses a positive integer path parameter
func int64Param(c *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid "+label)
		return 0, false
	}
	return id, true
}
