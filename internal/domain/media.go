package domain

import "time"

// Media types
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// MediaItem is metadata pointing at a binary payload owned by the
// object-storage bucket. Deleting the record does not delete the blob.
type MediaItem struct {
	ID         string    `json:"id"` // opaque token, backend-assigned
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Type       string    `json:"type"` // image | video
	Category   string    `json:"category"`
	Alt        string    `json:"alt,omitempty"`
	Size       int64     `json:"size"`
	UploadDate time.Time `json:"uploadDate"`
}
