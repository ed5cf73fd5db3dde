package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"qrdrop/internal/modules/realtime"
	"qrdrop/internal/modules/session"
	"qrdrop/internal/pkg/blob"
)

// Address identifies a session either directly by its id or by its pin.
// Exactly one field is set; Resolve normalizes both forms to a session id
// before any state is touched.
type Address struct {
	SessionID string
	Pin       string
}

func ByID(id string) Address   { return Address{SessionID: id} }
func ByPin(pin string) Address { return Address{Pin: pin} }

// IncomingFile is one file of an upload request, decoupled from multipart so
// the service can be driven directly in tests.
type IncomingFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// FromMultipart adapts a parsed multipart file header.
func FromMultipart(fh *multipart.FileHeader) IncomingFile {
	return IncomingFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Limits bound what a single upload request may carry.
type Limits struct {
	MaxFileSize int64
	MaxFiles    int
}

// Service accepts upload batches for a session: it validates the whole batch
// up front, stores each file in the blob store under a fresh unguessable
// name, registers the records on the session, publishes one file-uploaded
// event for the batch and arms a deletion timer per file.
type Service struct {
	registry Registry
	blobs    blob.Store
	hub      Publisher
	expirer  Expirer
	limits   Limits
	fileTTL  time.Duration
}

func NewService(registry Registry, blobs blob.Store, hub Publisher, expirer Expirer, limits Limits, fileTTL time.Duration) *Service {
	return &Service{
		registry: registry,
		blobs:    blobs,
		hub:      hub,
		expirer:  expirer,
		limits:   limits,
		fileTTL:  fileTTL,
	}
}

// Resolve normalizes an address to a live session id.
func (s *Service) Resolve(addr Address) (string, error) {
	if addr.Pin != "" {
		return s.registry.ResolvePin(addr.Pin)
	}
	if _, err := s.registry.Get(addr.SessionID); err != nil {
		return "", err
	}
	return addr.SessionID, nil
}

// Ingest accepts a batch of files for the addressed session. Acceptance is
// all-or-nothing: validation runs over the whole batch before any blob is
// written, and a write failure mid-batch rolls back the blobs written for
// this request. Exactly one event is published per accepted batch.
func (s *Service) Ingest(addr Address, files []IncomingFile) ([]session.FileRecord, error) {
	sessionID, err := s.Resolve(addr)
	if err != nil {
		return nil, err
	}

	if len(files) == 0 {
		return nil, ErrNoFilesProvided
	}
	if len(files) > s.limits.MaxFiles {
		return nil, fmt.Errorf("%w: got %d, limit %d", ErrTooManyFiles, len(files), s.limits.MaxFiles)
	}
	for _, f := range files {
		if f.Size > s.limits.MaxFileSize {
			return nil, fmt.Errorf("%w: %s", ErrFileTooLarge, f.Name)
		}
	}

	records := make([]session.FileRecord, 0, len(files))
	for _, f := range files {
		rec, err := s.store(f)
		if err != nil {
			s.rollback(records)
			return nil, err
		}
		records = append(records, rec)
	}

	for _, rec := range records {
		if err := s.registry.AppendFile(sessionID, rec); err != nil {
			// Session swept away mid-request.
			s.rollback(records)
			return nil, err
		}
	}

	s.hub.Publish(sessionID, realtime.NewFileUploadedEvent(sessionID, records))

	for _, rec := range records {
		s.expirer.Schedule(sessionID, rec.StorageHandle, s.fileTTL)
	}

	return records, nil
}

// store writes one file to the blob store and builds its record.
func (s *Service) store(f IncomingFile) (session.FileRecord, error) {
	src, err := f.Open()
	if err != nil {
		return session.FileRecord{}, fmt.Errorf("failed to open incoming file %q: %w", f.Name, err)
	}
	defer src.Close()

	handle := uuid.New().String() + sanitizeExt(f.Name)

	mimeType := f.ContentType
	var reader io.Reader = src
	if mimeType == "" {
		// Sniff from the first 512 bytes, then stitch them back on.
		head := make([]byte, 512)
		n, _ := io.ReadFull(src, head)
		mimeType = strings.Split(http.DetectContentType(head[:n]), ";")[0]
		reader = io.MultiReader(bytes.NewReader(head[:n]), src)
	}

	size, err := s.blobs.Put(handle, reader)
	if err != nil {
		return session.FileRecord{}, fmt.Errorf("failed to store %q: %w", f.Name, err)
	}

	return session.FileRecord{
		StorageHandle: handle,
		OriginalName:  f.Name,
		MimeType:      mimeType,
		Size:          size,
		URL:           s.blobs.PublicURL(handle),
		UploadedAt:    time.Now(),
	}, nil
}

func (s *Service) rollback(records []session.FileRecord) {
	for _, rec := range records {
		_ = s.blobs.Delete(rec.StorageHandle)
	}
}

// sanitizeExt keeps the original extension on the storage name so served
// files get sensible content types, rejecting anything that is not a plain
// dot-extension.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
