package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/model"
	"github.com/proplens/proplens/internal/pkg/errcode"
	"github.com/proplens/proplens/internal/pkg/response"
	"github.com/proplens/proplens/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

type registerDocumentRequest struct {
	Name    string         `json:"name"`
	DocType string         `json:"doc_type"`
	Rows    []model.RawRow `json:"rows"`
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req registerDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	doc, err := h.ingest.RegisterDocument(c.Request.Context(), service.DocumentRegisterInput{
		Name:    req.Name,
		DocType: model.DocumentType(req.DocType),
		Rows:    req.Rows,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

type documentDetail struct {
	*model.Document
	LastResult json.RawMessage `json:"last_result,omitempty"`
}

func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	doc, err := h.ingest.GetDocument(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	detail := documentDetail{Document: doc}
	if result, err := h.ingest.GetLastResult(c.Request.Context(), id); err == nil {
		detail.LastResult = result
	}
	response.Success(c, detail)
}

type extractRequest struct {
	Chunks []int `json:"chunks"`
}

// Extract runs the pipeline synchronously. An optional chunks filter re-runs
// only the listed chunk indexes, typically the failed ones of a previous run.
func (h *DocumentHandler) Extract(c *gin.Context) {
	var req extractRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, errcode.ErrInvalid, "invalid request body")
			return
		}
	}
	result, err := h.ingest.ExtractDocument(c.Request.Context(), c.Param("id"), req.Chunks)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
