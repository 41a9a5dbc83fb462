package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akazarov/roomchat/internal/blob"
)

// UploadHandlers provides the attachment upload endpoint.
type UploadHandlers struct {
	blobs *blob.FS
	log   *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(blobs *blob.FS, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{
		blobs: blobs,
		log:   logger,
	}
}

// UploadResponse carries the URL under which the stored file is retrievable.
type UploadResponse struct {
	URL string `json:"url"`
}

// Upload stores an attachment and returns its URL. The blob store enforces
// the extension allow-list before any bytes are written.
// POST /api/upload
func (h *UploadHandlers) Upload(c *gin.Context) {
	uid, ok := currentUserID(c)
	if !ok {
		h.log.Error().Msg("user_id not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no file provided"})
		return
	}
	if fileHeader.Filename == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "no selected file"})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	defer src.Close()

	url, err := h.blobs.Store(uid, fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, blob.ErrRejectedExtension) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file type"})
			return
		}
		h.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("failed to store upload")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{URL: url})
}
