package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/pkg/response"
	"github.com/proplens/proplens/internal/service"
)

type TaskHandler struct {
	query *service.QueryService
}

func NewTaskHandler(query *service.QueryService) *TaskHandler {
	return &TaskHandler{query: query}
}

func (h *TaskHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c)
	tasks, err := h.query.ListTasks(c.Request.Context(), c.Query("document_id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, tasks)
}

func parsePaging(c *gin.Context) (int, int) {
	limit := 0
	offset := 0
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if value := c.Query("offset"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			offset = parsed
		}
	}
	return limit, offset
}
