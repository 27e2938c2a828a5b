package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteHTTP converts domain/infra errors into an HTTP response. Keeps the
// handler layer clean by centralizing error mapping.
func WriteHTTP(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "USER_NOT_FOUND", Message: err.Error()})

	case errors.Is(err, ErrNotInQueue):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_IN_QUEUE", Message: err.Error()})

	case errors.Is(err, ErrAlreadyInQueue):
		c.JSON(http.StatusConflict, ErrorResponse{Code: "ALREADY_IN_QUEUE", Message: err.Error()})

	case errors.Is(err, ErrCannotLeaveMatched):
		c.JSON(http.StatusConflict, ErrorResponse{Code: "CANNOT_LEAVE_MATCHED", Message: err.Error()})

	case errors.Is(err, ErrTooManyRequests):
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Code: "TOO_MANY_REQUESTS", Message: err.Error()})

	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Code: "NOT_FOUND", Message: "record not found"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_SERVER_ERROR", Message: "internal server error"})
	}
}

// WriteInvalidInput reports a 400 for malformed request payloads.
func WriteInvalidInput(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_INPUT", Message: msg})
}
