package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON sends the {success, message} envelope with the payload keys such as
// "user", "token" or "trades" merged in at the top level
func JSON(c *gin.Context, statusCode int, success bool, message string, payload gin.H) {
	body := gin.H{"success": success}
	if message != "" {
		body["message"] = message
	}
	for k, v := range payload {
		if k == "success" || k == "message" {
			continue
		}
		body[k] = v
	}
	c.JSON(statusCode, body)
}

// Success sends a successful response
func Success(c *gin.Context, payload gin.H) {
	JSON(c, http.StatusOK, true, "", payload)
}

// SuccessMessage sends a successful response with a user-facing message
func SuccessMessage(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusOK, true, message, payload)
}

// Created sends a 201 created response
func Created(c *gin.Context, message string, payload gin.H) {
	JSON(c, http.StatusCreated, true, message, payload)
}

// Error sends an error response
func Error(c *gin.Context, statusCode int, message string) {
	JSON(c, statusCode, false, message, nil)
}

// BadRequest sends a 400 error response
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error response
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error response
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// InternalError sends a 500 error response
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
