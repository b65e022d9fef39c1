package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/proplens/proplens/internal/pkg/errcode"
	appErr "github.com/proplens/proplens/internal/pkg/errors"
	"github.com/proplens/proplens/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrConfiguration):
		response.Error(c, errcode.ErrConfiguration, err.Error())
	case errors.Is(err, appErr.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai service unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
