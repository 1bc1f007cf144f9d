package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/zornyy/photoCloud/internal/middleware"
	"github.com/zornyy/photoCloud/internal/pkg/errcode"
	appErr "github.com/zornyy/photoCloud/internal/pkg/errors"
	"github.com/zornyy/photoCloud/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps domain errors to HTTP. Validation-class failures carry
// the specific reason; auth failures stay deliberately vague.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "incorrect username or password")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrQuotaExceeded):
		response.Error(c, http.StatusBadRequest, errcode.ErrQuotaExceeded, err.Error())
	case errors.Is(err, appErr.ErrUnsupportedMedia):
		response.Error(c, http.StatusBadRequest, errcode.ErrUnsupportedMedia, err.Error())
	case errors.Is(err, appErr.ErrDuplicateUsername), errors.Is(err, appErr.ErrDuplicateEmail):
		response.Error(c, http.StatusBadRequest, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
