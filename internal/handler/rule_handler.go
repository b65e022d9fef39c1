package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/pkg/response"
	"github.com/proplens/proplens/internal/service"
)

type RuleHandler struct {
	query *service.QueryService
}

func NewRuleHandler(query *service.QueryService) *RuleHandler {
	return &RuleHandler{query: query}
}

func (h *RuleHandler) List(c *gin.Context) {
	limit, offset := parsePaging(c)
	rules, err := h.query.ListRules(c.Request.Context(), c.Query("document_id"), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, rules)
}
