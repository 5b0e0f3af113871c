package media

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	dErrors "lectern/pkg/domain-errors"
)

const MaxUploadBytes = 10 << 20

// Policy is an upload allow-list. A file passes when its size is within
// MaxBytes and its extension, declared content type and sniffed content type
// are all allowed.
type Policy struct {
	MaxBytes   int64
	Extensions []string
	Types      []string
}

var (
	ImagePolicy = Policy{
		MaxBytes:   MaxUploadBytes,
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		Types:      []string{"image/jpeg", "image/png", "image/webp"},
	}
	DocumentPolicy = Policy{
		MaxBytes:   MaxUploadBytes,
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp", ".pdf"},
		Types:      []string{"image/jpeg", "image/png", "image/webp", "application/pdf"},
	}
)

// File is an upload as received from the client.
type File struct {
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// CheckSize runs before the body is inspected so oversized files are rejected
// without reading them further.
func (p Policy) CheckSize(field string, size int64) error {
	if size <= 0 {
		return dErrors.New(dErrors.CodeValidation, field+" is empty").WithDetail("field", field)
	}
	if size > p.MaxBytes {
		return dErrors.New(dErrors.CodeValidation, field+" exceeds the maximum upload size").
			WithDetail("field", field).
			WithDetail("max_bytes", p.MaxBytes)
	}
	return nil
}

// Check validates a fully read file and returns the sniffed content type.
func (p Policy) Check(f File) (string, error) {
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	if err := p.CheckSize(f.Field, size); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if !slices.Contains(p.Extensions, ext) {
		return "", dErrors.New(dErrors.CodeValidation, f.Field+" has an unsupported file extension").
			WithDetail("field", f.Field).
			WithDetail("allowed", p.Extensions)
	}
	declared := normalizeType(f.ContentType)
	if !slices.Contains(p.Types, declared) {
		return "", dErrors.New(dErrors.CodeValidation, f.Field+" has an unsupported content type").
			WithDetail("field", f.Field).
			WithDetail("allowed", p.Types)
	}
	sniffed := normalizeType(mimetype.Detect(f.Data).String())
	if !slices.Contains(p.Types, sniffed) {
		return "", dErrors.New(dErrors.CodeValidation, f.Field+" content does not match an allowed type").
			WithDetail("field", f.Field)
	}
	return sniffed, nil
}

func normalizeType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
