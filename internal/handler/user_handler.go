package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zornyy/photoCloud/internal/model"
	"github.com/zornyy/photoCloud/internal/pkg/errcode"
	"github.com/zornyy/photoCloud/internal/pkg/response"
	"github.com/zornyy/photoCloud/internal/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateProfileRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.users.Profile(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profileView(user))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), getUserID(c), req.FullName, req.Email)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profileView(user))
}

func profileView(user *model.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"username":         user.Username,
		"full_name":        user.FullName,
		"email":            user.Email,
		"storage_quota_mb": user.StorageQuotaMB,
	}
}
