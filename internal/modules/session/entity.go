package session

import "time"

// Session is an ephemeral drop-point. Other devices reach it either through
// its unguessable ID (embedded in a QR code) or through the short PIN typed
// by hand. It lives in memory only and is destroyed after SessionTTL of
// inactivity.
type Session struct {
	ID         string       `json:"id"`
	PIN        string       `json:"pin"`
	Files      []FileRecord `json:"files"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
}

// FileRecord is the metadata for one uploaded file. The bytes themselves live
// in the blob store under StorageHandle. Records are append-only; the only
// mutation a session's file list sees is removal on expiry.
type FileRecord struct {
	StorageHandle string    `json:"storage_handle"`
	OriginalName  string    `json:"original_name"`
	MimeType      string    `json:"mime_type"`
	Size          int64     `json:"size"`
	URL           string    `json:"url"`
	UploadedAt    time.Time `json:"uploaded_at"`
}
