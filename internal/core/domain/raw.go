package domain

import (
	"path/filepath"
	"slices"
	"strings"
)

// Upload is an uploaded report file awaiting ingestion.
type Upload struct {
	// User is the authenticated identity the report is ingested for.
	User string

	// FileName is the original file name, used as chunk provenance.
	FileName string

	// Extension is the declared extension, lower case and without a dot.
	Extension string

	// Content is the raw file bytes.
	Content []byte
}

// NewUpload builds an upload, deriving the extension from the file name.
func NewUpload(user, fileName string, content []byte) *Upload {
	return &Upload{
		User:      user,
		FileName:  fileName,
		Extension: NormaliseExtension(filepath.Ext(fileName)),
		Content:   content,
	}
}

// NormaliseExtension lower-cases an extension and strips the leading dot.
func NormaliseExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// SupportedExtensions lists the file types accepted for upload.
func SupportedExtensions() []string {
	return []string{"jpg", "jpeg", "png", "pdf", "txt"}
}

// IsSupportedExtension reports whether ext is an accepted upload type.
func IsSupportedExtension(ext string) bool {
	return slices.Contains(SupportedExtensions(), NormaliseExtension(ext))
}
