package utils

import (
	"net/http"

	"civicsetu-be/apperrors"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every JSON endpoint answers with.
type APIResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Details    string      `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{Success: true, Message: message, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}, message string) {
	SuccessResponse(c, http.StatusCreated, message, data)
}

// ListSuccessResponse sends a page of items together with its pagination.
func ListSuccessResponse(c *gin.Context, items interface{}, p Pagination) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: items, Pagination: &p})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, APIResponse{Success: false, Message: message})
}

// ErrorResponseWithError writes err as an error envelope. Errors that are not
// AppErrors are reported as a generic 500 without their text.
func ErrorResponseWithError(c *gin.Context, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		c.AbortWithStatusJSON(appErr.Code, APIResponse{
			Success: false,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, APIResponse{
		Success: false,
		Message: "Internal server error occurred",
	})
}
