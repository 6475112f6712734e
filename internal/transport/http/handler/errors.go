package handler

import "github.com/gin-gonic/gin"

const (
	errInternalServer = "Internal server error"
	errUserNotFound   = "User not found"
	errFileNotFound   = "File not found"
	errFileTooLarge   = "File is too large"
	errMissingFile    = "A file field is required"
)

const (
	codeValidation = "VALIDATION_ERROR"
	codeNotFound   = "NOT_FOUND"
	codeInternal   = "INTERNAL"
	codeTooLarge   = "PAYLOAD_TOO_LARGE"
)

// respondError writes the {message, code, error} body the API client reads.
func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"message": message,
		"error":   message,
		"code":    code,
	})
}

// respondValidation adds per-field errors to a 400.
func respondValidation(c *gin.Context, err error) {
	c.AbortWithStatusJSON(400, gin.H{
		"message": "Validation failed",
		"code":    codeValidation,
		"errors":  fieldErrors(err),
	})
}
