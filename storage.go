package bantay

import (
	"context"
	"io"
)

// FileStorage defines operations for the evidence content store.
type FileStorage interface {
	// Upload uploads a file and returns its URL.
	// The key is the storage path/identifier for the file.
	// The contentType should be a valid MIME type (e.g., "image/jpeg").
	Upload(ctx context.Context, key string, reader io.Reader, contentType string) (url string, err error)

	// Delete removes a file from storage.
	// Returns nil if the file doesn't exist.
	Delete(ctx context.Context, key string) error

	// GetURL returns the public URL for a stored file.
	GetURL(key string) string

	// Exists checks if a file exists in storage.
	Exists(ctx context.Context, key string) (bool, error)
}

// StorageConfig holds configuration for file storage.
type StorageConfig struct {
	// Provider is the storage provider ("local" or "s3").
	Provider string

	// Local storage configuration
	LocalPath string
	LocalURL  string

	// S3 storage configuration
	S3Bucket  string
	S3Region  string
	S3BaseURL string
}

// AcceptedIncidentEvidenceTypes lists content types accepted for evidence
// attached directly to a violation record.
var AcceptedIncidentEvidenceTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
}

// AcceptedComplianceEvidenceTypes lists content types accepted for evidence
// attached to a compliance violation; the field workflow also takes video
// and document evidence.
var AcceptedComplianceEvidenceTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"video/mp4",
	"application/pdf",
	"application/msword",
}

// MaxUploadSize is the maximum allowed evidence file size (10MB).
const MaxUploadSize = 10 * 1024 * 1024

// IsAcceptedIncidentEvidenceType checks if a content type is accepted for
// violation-record evidence.
func IsAcceptedIncidentEvidenceType(contentType string) bool {
	for _, t := range AcceptedIncidentEvidenceTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// IsAcceptedComplianceEvidenceType checks if a content type is accepted for
// compliance-violation evidence.
func IsAcceptedComplianceEvidenceType(contentType string) bool {
	for _, t := range AcceptedComplianceEvidenceTypes {
		if t == contentType {
			return true
		}
	}
	return false
}
