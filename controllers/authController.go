package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"civicsetu-be/apperrors"
	"civicsetu-be/config"
	"civicsetu-be/logger"
	"civicsetu-be/middlewares"
	"civicsetu-be/models"
	"civicsetu-be/stores"
	"civicsetu-be/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	users stores.UserStore
	cfg   *config.Config
	log   *slog.Logger
}

func NewAuthController(users stores.UserStore, cfg *config.Config) *AuthController {
	return &AuthController{users: users, cfg: cfg, log: logger.WithComponent("auth")}
}

// Register handles citizen self-registration.
func (a *AuthController) Register(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required,max=50"`
		Email    string `json:"email" binding:"required,email"`
		Phone    string `json:"phone" binding:"omitempty,max=20"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	now := time.Now()
	user := models.User{
		Name:      utils.CleanText(input.Name),
		Email:     strings.ToLower(input.Email),
		Phone:     input.Phone,
		Password:  input.Password,
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		a.log.Error("error hashing password", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	if err := a.users.Create(ctx, &user); err != nil {
		if errors.Is(err, stores.ErrDuplicate) {
			utils.ErrorResponseWithError(c, apperrors.NewConflictError("User with this email already exists"))
			return
		}
		a.log.Error("error inserting user", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	a.respondWithToken(c, http.StatusCreated, "Registration successful", &user)
}

// Login checks credentials and issues a token, both in the body and as a cookie.
func (a *AuthController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &input) {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := a.users.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, stores.ErrNotFound) {
		a.log.Error("error loading user", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}
	if user == nil || !user.ComparePassword(input.Password) {
		utils.ErrorResponseWithError(c, apperrors.NewUnauthorizedError("Invalid credentials"))
		return
	}
	if !user.IsActive {
		utils.ErrorResponseWithError(c, apperrors.NewForbiddenError("Account is deactivated"))
		return
	}

	a.respondWithToken(c, http.StatusOK, "Login successful", user)
}

func (a *AuthController) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	token, err := utils.GenerateToken(a.cfg.JWTSecret, user.ID.Hex(), string(user.Role), a.cfg.JWTTTL)
	if err != nil {
		a.log.Error("error generating token", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	// For production, don't set domain to allow cross-origin cookies
	domain := a.cfg.Domain
	if a.cfg.IsProduction() {
		domain = ""
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    token,
		MaxAge:   int(a.cfg.JWTTTL.Seconds()),
		Path:     "/",
		Domain:   domain,
		Secure:   a.cfg.IsProduction(),
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	})

	utils.SuccessResponse(c, status, message, gin.H{"token": token, "user": user})
}

// Me returns the authenticated user's profile.
func (a *AuthController) Me(c *gin.Context) {
	u, ok := requireCaller(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := a.users.FindByID(ctx, u.ID)
	if err != nil {
		utils.ErrorResponseWithError(c, storeError(err, "User"))
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "", user)
}

// Logout clears the auth cookie.
func (a *AuthController) Logout(c *gin.Context) {
	c.SetCookie(middlewares.AuthCookie, "", -1, "/", a.cfg.Domain, a.cfg.IsProduction(), true)
	utils.SuccessResponse(c, http.StatusOK, "Logged out successfully", nil)
}
