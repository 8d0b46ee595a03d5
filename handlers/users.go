package handlers

import (
	"errors"
	"net/http"
	"strings"

	"labsched/database"
	"labsched/errcode"
	"labsched/middleware"
	"labsched/models"
	"labsched/response"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func validRole(role models.Role) bool {
	switch role {
	case models.RoleAdmin, models.RoleLabManager, models.RoleEngineer, models.RoleTechnician, models.RoleViewer:
		return true
	}
	return false
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := database.GetDB().WithContext(r.Context()).Order("username").Find(&users).Error; err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, users)
}

type createUserRequest struct {
	Username    string      `json:"username"`
	FullName    string      `json:"full_name"`
	Password    string      `json:"password"`
	Role        models.Role `json:"role"`
	PersonnelID *uint       `json:"personnel_id"`
}

func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	if len(req.Username) < 3 {
		response.FailWithMessage(w, errcode.ErrValidation, "username must be at least 3 characters", nil)
		return
	}
	if len(req.Password) < minPasswordLength {
		response.FailWithMessage(w, errcode.ErrValidation, "password must be at least 8 characters", nil)
		return
	}
	if !validRole(req.Role) {
		response.FailWithMessage(w, errcode.ErrValidation, "invalid role", nil)
		return
	}

	db := database.GetDB().WithContext(r.Context())
	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		response.ServerError(w, r, err)
		return
	}
	if count > 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "username already exists", nil)
		return
	}
	if req.PersonnelID != nil && !h.personnelExists(w, r, *req.PersonnelID) {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}

	user := models.User{
		Username:     req.Username,
		FullName:     strings.TrimSpace(req.FullName),
		PasswordHash: string(hashedPassword),
		Role:         req.Role,
		PersonnelID:  req.PersonnelID,
	}
	if err := db.Create(&user).Error; err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Created(w, user)
}

type updateUserRequest struct {
	FullName    *string      `json:"full_name"`
	Role        *models.Role `json:"role"`
	PersonnelID *uint        `json:"personnel_id"`
}

func (h *AuthHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req updateUserRequest
	if !decode(w, r, &req) {
		return
	}

	db := database.GetDB().WithContext(r.Context())
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.FailWithMessage(w, errcode.ErrValidation, "user not found", nil)
			return
		}
		response.ServerError(w, r, err)
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			response.FailWithMessage(w, errcode.ErrValidation, "invalid role", nil)
			return
		}
		// Admins cannot change their own role.
		if user.ID == middleware.GetUserFromContext(r.Context()).ID && *req.Role != models.RoleAdmin {
			response.FailWithMessage(w, errcode.ErrValidation, "cannot change your own role", nil)
			return
		}
		updates["role"] = *req.Role
	}
	if req.PersonnelID != nil {
		if !h.personnelExists(w, r, *req.PersonnelID) {
			return
		}
		updates["personnel_id"] = *req.PersonnelID
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			response.ServerError(w, r, err)
			return
		}
	}
	if err := db.First(&user, id).Error; err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, user)
}

func (h *AuthHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	if id == middleware.GetUserFromContext(r.Context()).ID {
		response.FailWithMessage(w, errcode.ErrValidation, "cannot delete your own account", nil)
		return
	}

	res := database.GetDB().WithContext(r.Context()).Delete(&models.User{}, id)
	if res.Error != nil {
		response.ServerError(w, r, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "user not found", nil)
		return
	}
	response.Success(w, nil)
}

func (h *AuthHandler) personnelExists(w http.ResponseWriter, r *http.Request, id uint) bool {
	var count int64
	if err := database.GetDB().WithContext(r.Context()).Model(&models.Personnel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		response.ServerError(w, r, err)
		return false
	}
	if count == 0 {
		response.Fail(w, errcode.ErrPersonnelNotFound, nil)
		return false
	}
	return true
}
