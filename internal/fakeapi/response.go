package fakeapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{"message": message})
}

func messageResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"message": message})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, errUserNotFound), errors.Is(err, errTodoNotFound):
		return http.StatusNotFound
	case errors.Is(err, errUserExists):
		return http.StatusConflict
	case errors.Is(err, errBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errWrongPassword), errors.Is(err, errEmptyTask), errors.Is(err, errNothingToUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// bindError answers a failed ShouldBindJSON. Rule violations get the
// route's message, malformed JSON a generic one.
func bindError(c *gin.Context, err error, invalid string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		errorResponse(c, http.StatusBadRequest, invalid)
		return
	}
	errorResponse(c, http.StatusBadRequest, "Invalid request body")
}
