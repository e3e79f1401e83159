package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ticketing/internal/pkg/apperr"
	"ticketing/internal/pkg/validator"
)

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// BindError reports a request that failed to bind. Validator failures are listed
// per field under details.
func BindError(c *gin.Context, message string, err error) {
	if fields := validator.Fields(err); fields != nil {
		ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", message, fields)
		return
	}
	Error(c, http.StatusBadRequest, "VALIDATION_ERROR", message)
}

// FromError writes an apperr.Error with its own status and code. Anything else is
// reported as an opaque internal error and attached to the gin context for logging.
func FromError(c *gin.Context, err error) {
	if ae, ok := apperr.As(err); ok {
		Error(c, ae.HTTPStatus(), ae.Code, ae.Message)
		return
	}
	_ = c.Error(err)
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
