package requests

import (
	"guestbook-server/internal/domain/media"
)

// LoginRequest carries the shared guest password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// PrepareUploadRequest asks for a pre-signed direct upload URL.
type PrepareUploadRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType" binding:"required"`
	Folder      string `json:"folder"`
}

// SaveMetadataRequest registers a record after a direct-to-bucket upload.
type SaveMetadataRequest struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Type      string `json:"type"`
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	Name      string `json:"name"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

// ToDomain converts the request to a domain record.
func (r *SaveMetadataRequest) ToDomain() media.Record {
	return media.Record{
		Key:       r.Key,
		URL:       r.URL,
		Type:      media.FileType(r.Type),
		FileName:  r.FileName,
		MimeType:  r.MimeType,
		Name:      r.Name,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
}
