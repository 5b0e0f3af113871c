// Package media stores uploaded verification images and documents and holds
// the upload allow-lists and image transforms applied before storage.
package media

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object is what a blob store returns for a stored upload.
type Object struct {
	URL      string
	PublicID string
	MimeType string
	Bytes    int64
}

// Upload describes one blob to store. Folder is namespaced per instructor.
type Upload struct {
	Folder      string
	Name        string
	ContentType string
	Data        []byte
}

// Key builds the object key: <folder>/<yyyymmdd>-<uuid>-<name>.
func (u Upload) Key(now time.Time) string {
	name := sanitize(u.Name)
	if name == "" {
		name = "file"
	}
	return path.Join(u.Folder, now.UTC().Format("20060102")+"-"+uuid.NewString()+"-"+name)
}

func sanitize(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Folder returns the per-instructor namespace for a kind of upload.
func Folder(prefix, instructorID, kind string) string {
	return path.Join(prefix, instructorID, kind)
}
