package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/pkg/errcode"
	"github.com/proplens/proplens/internal/pkg/response"
	"github.com/proplens/proplens/internal/service"
)

type FileHandler struct {
	files *service.FileService
}

func NewFileHandler(files *service.FileService) *FileHandler {
	return &FileHandler{files: files}
}

// Upload attaches the original source artifact (the PDF the rows came from)
// to a registered document.
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to open file")
		return
	}
	defer opened.Close()

	if err := h.files.SaveArtifact(c.Request.Context(), c.Param("id"), opened, file.Size); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"name": file.Filename, "size": file.Size})
}

func (h *FileHandler) Download(c *gin.Context) {
	reader, err := h.files.OpenArtifact(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()
	c.Header("Content-Type", "application/octet-stream")
	c.Status(200)
	_, _ = io.Copy(c.Writer, reader)
}
