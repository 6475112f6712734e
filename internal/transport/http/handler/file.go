package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/authkit/internal/domain"
	"github.com/ErlanBelekov/authkit/internal/usecase"
)

type fileUsecaser interface {
	Upload(ctx context.Context, ownerID, name, contentType string, data []byte) (*domain.File, error)
	Get(ctx context.Context, ownerID, id string) (*domain.File, error)
}

type FileHandler struct {
	fileUsecase fileUsecaser
	logger      *slog.Logger
}

func NewFileHandler(fileUsecase fileUsecaser, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		fileUsecase: fileUsecase,
		logger:      logger.With("component", "file_handler"),
	}
}

type fileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// POST /files (multipart, field "file")
func (h *FileHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, errMissingFile)
		return
	}
	if header.Size > usecase.MaxUploadBytes {
		respondError(c, http.StatusRequestEntityTooLarge, codeTooLarge, errFileTooLarge)
		return
	}

	src, err := header.Open()
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "open upload", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(io.LimitReader(src, usecase.MaxUploadBytes+1))
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "read upload", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}

	f, err := h.fileUsecase.Upload(c.Request.Context(), c.GetString("userID"), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if errors.Is(err, usecase.ErrFileTooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, codeTooLarge, errFileTooLarge)
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "store upload", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}

	c.JSON(http.StatusCreated, fileResponse{ID: f.ID, Name: f.Name, Size: f.Size})
}

// GET /files/:id
func (h *FileHandler) Download(c *gin.Context) {
	f, err := h.fileUsecase.Get(c.Request.Context(), c.GetString("userID"), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrFileNotFound) {
			respondError(c, http.StatusNotFound, codeNotFound, errFileNotFound)
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "load file", "error", err)
		respondError(c, http.StatusInternalServerError, codeInternal, errInternalServer)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+strconv.Quote(f.Name))
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
