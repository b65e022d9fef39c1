package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/pkg/errcode"
	"github.com/proplens/proplens/internal/pkg/response"
	"github.com/proplens/proplens/internal/service"
)

type SearchHandler struct {
	search *service.SearchService
}

func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "query is required")
		return
	}
	topK := 0
	if value := c.Query("top_k"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			topK = parsed
		}
	}
	results, err := h.search.Search(c.Request.Context(), query, topK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, results)
}
