package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zornyy/photoCloud/internal/pkg/errcode"
	"github.com/zornyy/photoCloud/internal/pkg/response"
	"github.com/zornyy/photoCloud/internal/service"
)

type PhotoHandler struct {
	photos *service.PhotoService
}

func NewPhotoHandler(photos *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
		return
	}
	name := c.PostForm("name")
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrUploadFailed, "failed to open file")
		return
	}
	defer opened.Close()

	mimeType := file.Header.Get("Content-Type")
	photo, err := h.photos.Upload(c.Request.Context(), getUserID(c), name, file.Filename, opened, file.Size, mimeType)
	if err != nil {
		handleError(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{
		"id":   photo.ID,
		"name": photo.Name,
		"size": photo.Size,
		"path": photo.Path,
	})
}

func (h *PhotoHandler) List(c *gin.Context) {
	items, err := h.photos.List(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, items)
}

func (h *PhotoHandler) Get(c *gin.Context) {
	photo, err := h.photos.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, photo)
}

func (h *PhotoHandler) Content(c *gin.Context) {
	photo, rc, err := h.photos.OpenContent(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", photo.MimeType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	if err := h.photos.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "photo deleted successfully"})
}
