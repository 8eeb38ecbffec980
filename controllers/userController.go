package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"civicsetu-be/apperrors"
	"civicsetu-be/logger"
	"civicsetu-be/models"
	"civicsetu-be/stores"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	users stores.UserStore
	log   *slog.Logger
}

func NewUserController(users stores.UserStore) *UserController {
	return &UserController{users: users, log: logger.WithComponent("users")}
}

// GetUsers lists users, optionally filtered by role and active flag.
func (uc *UserController) GetUsers(c *gin.Context) {
	page, limit := utils.ParsePage(c.Query("page"), c.Query("limit"))
	filter := stores.UserFilter{Page: page, Limit: limit}

	if role := c.Query("role"); role != "" {
		if !models.Role(role).IsValid() {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid role", role))
			return
		}
		filter.Role = role
	}
	if v := c.Query("isActive"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			utils.ErrorResponseWithError(c, apperrors.NewValidationError("Invalid isActive", v))
			return
		}
		filter.IsActive = &active
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	users, total, err := uc.users.List(ctx, filter)
	if err != nil {
		uc.log.Error("error listing users", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	utils.ListSuccessResponse(c, users, utils.NewPagination(page, limit, total))
}

// GetUser returns one user. Citizens may only read themselves.
func (uc *UserController) GetUser(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	if id != u.ID && !u.IsStaff() {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Not authorized to view this user"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "User"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", user)
}

func (uc *UserController) setActive(c *gin.Context, active bool) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}
	if id == u.ID && !active {
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("You cannot deactivate your own account"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := uc.users.SetActive(ctx, id, active); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "User"))
		return
	}
	message := "User deactivated successfully"
	if active {
		message = "User activated successfully"
	}
	utils.SuccessResponse(c, http.StatusOK, message, gin.H{"id": id, "isActive": active})
}

func (uc *UserController) ActivateUser(c *gin.Context) {
	uc.setActive(c, true)
}

func (uc *UserController) DeactivateUser(c *gin.Context) {
	uc.setActive(c, false)
}

// UpdateRole changes a user's role and, for staff, their department.
func (uc *UserController) UpdateRole(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}
	id, ok := paramObjectID(c, "id")
	if !ok {
		return
	}

	var input struct {
		Role       models.Role `json:"role" binding:"required,role"`
		Department string      `json:"department" binding:"max=20"`
	}
	if !bindJSON(c, &input) {
		return
	}
	if id == u.ID && input.Role != u.Role {
		utils.ErrorResponseWithError(c, apperrors.NewBadRequestError("You cannot change your own role"))
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := uc.users.SetRole(ctx, id, input.Role, strings.ToUpper(input.Department)); err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "User"))
		return
	}
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "User"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "User role updated successfully", user)
}
