package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"guestbook-server/internal/config"
	domain "guestbook-server/internal/domain/media"
	"guestbook-server/internal/interfaces/httpserver/requests"
	"guestbook-server/internal/interfaces/httpserver/responses"
)

// MediaHandler exposes upload, gallery and storage administration endpoints.
type MediaHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewMediaHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *MediaHandler {
	return &MediaHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "media-handler").Logger(),
	}
}

// Upload godoc
// @Summary      Upload a file
// @Description  Stores a multipart file on the active backend and catalogs it.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        file     formData  file    true   "Media file"
// @Param        folder   formData  string  false  "Media category (photo, video, audio)"
// @Param        name     formData  string  false  "Uploader name"
// @Param        message  formData  string  false  "Message for the hosts"
// @Success      200      {object}  responses.UploadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/files [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	record, err := h.service.Upload(c.Request.Context(), domain.UploadInput{
		Folder:      c.PostForm("folder"),
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Name:        c.PostForm("name"),
		Message:     c.PostForm("message"),
		Body:        file,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("upload failed")
		responses.HandleError(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusOK, responses.UploadResponse{File: responses.BuildFileItem(*record)})
}

// PrepareUpload godoc
// @Summary      Request a pre-signed upload URL
// @Description  Reserves a storage key and issues a short-lived direct upload URL. Not available for local storage.
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        request  body      requests.PrepareUploadRequest  true  "Upload preparation request"
// @Success      200      {object}  responses.PrepareUploadResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      501      {object}  responses.ErrorResponse
// @Router       /v1/files/prepare-upload [post]
func (h *MediaHandler) PrepareUpload(c *gin.Context) {
	var req requests.PrepareUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.service.PrepareUpload(c.Request.Context(), req.FileName, req.ContentType, req.Folder)
	if err != nil {
		h.log.Error().Err(err).Msg("prepare upload failed")
		responses.HandleError(c, err, "failed to generate upload URL")
		return
	}

	c.JSON(http.StatusOK, responses.PrepareUploadResponse{
		UploadURL: ticket.UploadURL,
		FileURL:   ticket.FileURL,
		Key:       ticket.Key,
		ExpiresIn: ticket.ExpiresIn,
	})
}

// SaveMetadata godoc
// @Summary      Register an uploaded file
// @Description  Appends a metadata record after a direct-to-bucket upload completes. Duplicate keys are a no-op.
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        request  body      requests.SaveMetadataRequest  true  "File metadata"
// @Success      200      {object}  responses.SaveMetadataResponse
// @Failure      400      {object}  responses.ErrorResponse
// @Router       /v1/files/metadata [post]
func (h *MediaHandler) SaveMetadata(c *gin.Context) {
	var req requests.SaveMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, added, err := h.service.SaveMetadata(c.Request.Context(), req.ToDomain())
	if err != nil {
		h.log.Error().Err(err).Msg("save metadata failed")
		responses.HandleError(c, err, "failed to save file metadata")
		return
	}

	c.JSON(http.StatusOK, responses.SaveMetadataResponse{
		File:  responses.BuildFileItem(*record),
		Added: added,
	})
}

// List godoc
// @Summary      List gallery files
// @Description  Returns all cataloged files, newest first. force=true reconciles the index against storage first and bypasses the cache.
// @Tags         files
// @Produce      json
// @Param        force  query     bool  false  "Force a metadata sync"
// @Success      200    {object}  responses.ListFilesResponse
// @Failure      500    {object}  responses.ErrorResponse
// @Router       /v1/files [get]
func (h *MediaHandler) List(c *gin.Context) {
	force := c.Query("force") == "true"

	records, err := h.service.ListFiles(c.Request.Context(), force)
	if err != nil {
		h.log.Error().Err(err).Msg("list files failed")
		responses.HandleError(c, err, "failed to list files")
		return
	}

	c.Header("Cache-Control", "no-store, max-age=0")
	c.JSON(http.StatusOK, responses.BuildListFilesResponse(records))
}

// Delete godoc
// @Summary      Delete a file
// @Description  Removes the stored object and its metadata record, identified by key, id or url.
// @Tags         files
// @Produce      json
// @Param        key  query     string  false  "Storage key"
// @Param        id   query     string  false  "Record id (legacy local records)"
// @Param        url  query     string  false  "File URL (legacy local records)"
// @Success      200  {object}  map[string]bool
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Router       /v1/files [delete]
func (h *MediaHandler) Delete(c *gin.Context) {
	selector := domain.DeleteSelector{
		Key: c.Query("key"),
		ID:  c.Query("id"),
		URL: c.Query("url"),
	}

	if err := h.service.Delete(c.Request.Context(), selector); err != nil {
		h.log.Error().Err(err).Msg("delete failed")
		responses.HandleError(c, err, "failed to delete file")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SyncNow godoc
// @Summary      Synchronize the metadata index
// @Description  Back-fills index records from the authoritative object listing; refresh=true also rewrites stale URLs.
// @Tags         files
// @Produce      json
// @Param        refresh  query     bool  false  "Also refresh record URLs"
// @Success      200      {object}  responses.SyncResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v1/files/sync [post]
func (h *MediaHandler) SyncNow(c *gin.Context) {
	refresh := c.Query("refresh") == "true"

	result, err := h.service.Sync(c.Request.Context(), refresh)
	if err != nil {
		h.log.Error().Err(err).Msg("sync failed")
		responses.HandleError(c, err, "failed to synchronize metadata")
		return
	}

	c.JSON(http.StatusOK, responses.SyncResponse{
		Success:   true,
		Added:     result.Added,
		Refreshed: result.Refreshed,
		Partial:   result.Partial,
	})
}

// StorageConfig godoc
// @Summary      Inspect storage configuration
// @Tags         storage
// @Produce      json
// @Success      200  {object}  responses.StorageConfigResponse
// @Router       /v1/storage-config [get]
func (h *MediaHandler) StorageConfig(c *gin.Context) {
	c.JSON(http.StatusOK, responses.StorageConfigResponse{
		Backend:          h.service.StorageName(),
		PresignedUploads: h.service.SupportsPresignedUploads(),
	})
}

// ToggleStorage godoc
// @Summary      Toggle the storage backend
// @Description  Flips the active backend; subsequent requests use the new one.
// @Tags         storage
// @Produce      json
// @Success      200  {object}  responses.ToggleStorageResponse
// @Router       /v1/storage-config/toggle [post]
func (h *MediaHandler) ToggleStorage(c *gin.Context) {
	previous, current := h.service.ToggleStorage()
	c.JSON(http.StatusOK, responses.ToggleStorageResponse{
		PreviousBackend: previous,
		CurrentBackend:  current,
	})
}
