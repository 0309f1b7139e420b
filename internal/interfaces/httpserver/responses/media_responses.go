package responses

import (
	"guestbook-server/internal/domain/media"
)

// FileItem is the gallery-facing shape of a metadata record.
type FileItem struct {
	ID        string `json:"id,omitempty"`
	Key       string `json:"key,omitempty"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	FileName  string `json:"fileName,omitempty"`
	MimeType  string `json:"mimeType,omitempty"`
	Name      string `json:"name,omitempty"`
	Message   string `json:"message,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// BuildFileItem maps a domain record to its response shape.
func BuildFileItem(record media.Record) FileItem {
	return FileItem{
		ID:        record.ID,
		Key:       record.Key,
		URL:       record.URL,
		Type:      string(record.Type),
		FileName:  record.FileName,
		MimeType:  record.MimeType,
		Name:      record.Name,
		Message:   record.Message,
		CreatedAt: record.CreatedAt,
	}
}

// ListFilesResponse is the gallery listing payload.
type ListFilesResponse struct {
	Files []FileItem `json:"files"`
	Count int        `json:"count"`
}

// BuildListFilesResponse maps records to the gallery payload.
func BuildListFilesResponse(records []media.Record) *ListFilesResponse {
	files := make([]FileItem, 0, len(records))
	for _, record := range records {
		files = append(files, BuildFileItem(record))
	}
	return &ListFilesResponse{Files: files, Count: len(files)}
}

// UploadResponse confirms a direct upload.
type UploadResponse struct {
	File FileItem `json:"file"`
}

// PrepareUploadResponse carries a two-step upload ticket.
type PrepareUploadResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// SaveMetadataResponse confirms a metadata append.
type SaveMetadataResponse struct {
	File  FileItem `json:"file"`
	Added bool     `json:"added"`
}

// SyncResponse reports a reconciliation pass.
type SyncResponse struct {
	Success   bool `json:"success"`
	Added     int  `json:"added"`
	Refreshed int  `json:"refreshed"`
	Partial   bool `json:"partial"`
}

// StorageConfigResponse reports the active backend.
type StorageConfigResponse struct {
	Backend          string `json:"backend"`
	PresignedUploads bool   `json:"presignedUploads"`
}

// ToggleStorageResponse reports a backend flip.
type ToggleStorageResponse struct {
	PreviousBackend string `json:"previousBackend"`
	CurrentBackend  string `json:"currentBackend"`
}

// LoginResponse carries a guest session token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expiresIn"`
}
