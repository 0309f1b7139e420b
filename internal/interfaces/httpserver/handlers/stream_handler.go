package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	domain "guestbook-server/internal/domain/media"
	"guestbook-server/internal/infrastructure/storage"
	"guestbook-server/internal/utils/httprange"
	"guestbook-server/internal/utils/storagekey"
)

// allowedStreamFolders limits the media route to the folders uploads land in.
var allowedStreamFolders = map[string]bool{
	"photo":   true,
	"video":   true,
	"audio":   true,
	"other":   true,
	"uploads": true,
}

// StreamHandler serves stored media bytes with HTTP range support.
type StreamHandler struct {
	service *domain.Service
	log     zerolog.Logger
}

func NewStreamHandler(service *domain.Service, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		service: service,
		log:     log.With().Str("component", "stream-handler").Logger(),
	}
}

// Serve godoc
// @Summary      Stream a stored media file
// @Description  Serves file bytes from the active backend, honoring single byte-range requests for playback seeking.
// @Tags         media
// @Produce      octet-stream
// @Param        key       path      string  true   "Storage key"
// @Param        download  query     bool    false  "Force a download disposition"
// @Success      200       {file}    file
// @Success      206       {file}    file
// @Failure      400       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      416       {object}  map[string]string
// @Router       /v1/media/{key} [get]
func (h *StreamHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid media key"})
		return
	}

	folder, _, ok := strings.Cut(key, "/")
	if strings.Contains(key, "..") || !ok || !allowedStreamFolders[folder] {
		c.JSON(http.StatusForbidden, gin.H{"error": "access to this path is not allowed"})
		return
	}

	ctx := c.Request.Context()

	info, err := h.service.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error().Err(err).Str("key", key).Msg("stat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}

	rng, err := httprange.Parse(c.GetHeader("Range"), info.Size)
	switch {
	case errors.Is(err, httprange.ErrUnsatisfiable):
		c.Header("Content-Range", httprange.ContentRangeUnsatisfied(info.Size))
		c.JSON(http.StatusRequestedRangeNotSatisfiable, gin.H{"error": "requested range not satisfiable"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed range header"})
		return
	}

	// An empty object has no byte range to request from the backend.
	if rng == nil && info.Size == 0 {
		c.Header("Accept-Ranges", "bytes")
		c.Header("Cache-Control", "public, max-age=3600")
		c.Header("Content-Length", "0")
		if c.Query("download") == "true" {
			c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storagekey.FileName(key)))
		}
		c.Data(http.StatusOK, storage.ContentTypeForPath(key), nil)
		return
	}

	start, end := int64(0), info.Size-1
	status := http.StatusOK
	if rng != nil {
		start, end = rng.Start, rng.End
		status = http.StatusPartialContent
		c.Header("Content-Range", rng.ContentRange(info.Size))
	}

	body, err := h.service.ReadRange(ctx, key, start, end)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.log.Error().Err(err).Str("key", key).Msg("read failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read file"})
		return
	}
	defer body.Close()

	contentType := storage.ContentTypeForPath(key)
	length := end - start + 1

	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.Header("Content-Length", strconv.FormatInt(length, 10))
	if c.Query("download") == "true" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storagekey.FileName(key)))
	}

	c.DataFromReader(status, length, contentType, body, nil)
}
