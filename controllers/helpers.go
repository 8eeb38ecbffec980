package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"civicsetu-be/apperrors"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/stores"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// caller is the authenticated user behind a request.
type caller struct {
	ID   primitive.ObjectID
	Role models.Role
}

func (u caller) IsStaff() bool { return u.Role.IsStaff() }

// currentCaller returns the authenticated user, or ok=false for anonymous requests.
func currentCaller(c *gin.Context) (caller, bool) {
	userID, role, ok := middlewares.CurrentUser(c)
	if !ok {
		return caller{}, false
	}
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return caller{}, false
	}
	return caller{ID: id, Role: models.Role(role)}, true
}

func requireCaller(c *gin.Context) (caller, bool) {
	u, ok := currentCaller(c)
	if !ok {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("User not authenticated"))
	}
	return u, ok
}

func paramObjectID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("Invalid id", c.Param(name)))
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return false
	}
	return true
}

// storeError maps store and status-model errors onto HTTP errors. Anything
// unrecognised is passed through and ends up as a 500.
func storeError(err error, what string) error {
	var transition *models.TransitionError
	switch {
	case errors.Is(err, stores.ErrNotFound):
		return apperrors.NewNotFoundError(what + " not found")
	case errors.Is(err, stores.ErrStatusConflict):
		return apperrors.NewConflictError(what+" status changed concurrently", "reload and try again")
	case errors.Is(err, stores.ErrNotEditable):
		return apperrors.NewConflictError(what+" can only be edited while submitted")
	case errors.Is(err, stores.ErrDuplicate):
		return apperrors.NewConflictError(what + " already exists")
	case errors.As(err, &transition):
		return apperrors.NewConflictError(transition.Error(), allowedDetail(transition.From))
	case errors.Is(err, models.ErrNotReopenable):
		return apperrors.NewConflictError(err.Error())
	case errors.Is(err, models.ErrUnknownStatus):
		return apperrors.NewValidationError(err.Error())
	}
	return err
}

func allowedDetail(from models.ReportStatus) string {
	next := from.NextStatuses()
	if len(next) == 0 {
		return "no further moves; reopen the report instead"
	}
	names := make([]string, len(next))
	for i, s := range next {
		names[i] = string(s)
	}
	return "allowed: " + strings.Join(names, ", ")
}
