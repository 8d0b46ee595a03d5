package handlers

import (
	"net/http"
	"strings"

	"labsched/config"
	"labsched/database"
	"labsched/errcode"
	"labsched/middleware"
	"labsched/models"
	"labsched/response"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		config: cfg,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      *models.User `json:"user"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	var user models.User
	if err := database.GetDB().WithContext(r.Context()).Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		response.Fail(w, errcode.ErrCredentials, nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		response.Fail(w, errcode.ErrCredentials, nil)
		return
	}

	h.issue(w, r, &user)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	response.Success(w, middleware.GetUserFromContext(r.Context()))
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	var req changePasswordRequest
	if !decode(w, r, &req) {
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		response.FailWithMessage(w, errcode.ErrCredentials, "current password is incorrect", nil)
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		response.FailWithMessage(w, errcode.ErrValidation, "password must be at least 8 characters", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	if err := database.GetDB().WithContext(r.Context()).Model(user).Update("password_hash", string(hashedPassword)).Error; err != nil {
		response.ServerError(w, r, err)
		return
	}

	h.issue(w, r, user)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, user *models.User) {
	token, err := middleware.GenerateToken(user, h.config.JWTExpiration)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, tokenResponse{
		Token:     token,
		ExpiresIn: int(h.config.JWTExpiration.Seconds()),
		User:      user,
	})
}
