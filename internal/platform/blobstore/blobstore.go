// Package blobstore stores uploaded files (letterheads, attachments) for an
// owner. Backends: in-memory for tests and development, PostgreSQL bytea,
// and a single bolt file.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("only PNG, JPEG and PDF files are accepted")
	ErrMissingFileName    = errors.New("file name is required")
	ErrEmptyFile          = errors.New("file is empty")
)

// MaxFileSize is the largest accepted upload (10 MiB).
const MaxFileSize = 10 << 20

// AllowedContentTypes are matched against the sniffed content, not the
// client-declared header.
var AllowedContentTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"application/pdf": true,
}

// Metadata describes a stored file.
type Metadata struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is implemented by every backend. Get is unscoped because stored
// files are served by public URL. Everything else is scoped by owner and
// reports ErrBlobNotFound for other owners' files.
type Store interface {
	Put(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Get(ctx context.Context, id uuid.UUID) (io.ReadCloser, *Metadata, error)
	Stat(ctx context.Context, ownerID, id uuid.UUID) (*Metadata, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	List(ctx context.Context, ownerID uuid.UUID, category string) ([]*Metadata, error)
}

// prepare validates an upload, reads it fully, and fills in id, size, hash,
// sniffed content type and timestamp.
func prepare(meta Metadata, content io.Reader) (Metadata, []byte, error) {
	meta.FileName = strings.TrimSpace(meta.FileName)
	if meta.FileName == "" {
		return meta, nil, ErrMissingFileName
	}
	if meta.OwnerID == uuid.Nil {
		return meta, nil, errors.New("owner is required")
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return meta, nil, fmt.Errorf("reading content: %w", err)
	}
	if len(data) == 0 {
		return meta, nil, ErrEmptyFile
	}
	if int64(len(data)) > MaxFileSize {
		return meta, nil, ErrFileTooLarge
	}

	sniffed := http.DetectContentType(data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	if !AllowedContentTypes[sniffed] {
		return meta, nil, ErrInvalidContentType
	}

	sum := sha256.Sum256(data)
	meta.ID = uuid.New()
	meta.ContentType = sniffed
	meta.Size = int64(len(data))
	meta.Hash = hex.EncodeToString(sum[:])
	meta.CreatedAt = time.Now().UTC()
	return meta, data, nil
}

func readCloser(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}
