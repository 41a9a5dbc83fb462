// Package blob stores uploaded attachments and hands back retrievable URLs.
package blob

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// ErrRejectedExtension is returned before any bytes are written when the
// filename's extension is not on the allow-list.
var ErrRejectedExtension = errors.New("file extension not allowed")

// allowedExtensions mirrors the upload policy: images plus pdf/docx.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"gif":  {},
	"pdf":  {},
	"docx": {},
}

// FS is a filesystem-backed blob store. Stored files are served back under
// baseURL by the HTTP layer.
type FS struct {
	dir     string
	baseURL string
	log     *zerolog.Logger
}

// NewFS creates the upload directory if needed and returns a store over it.
func NewFS(dir, baseURL string, logger *zerolog.Logger) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FS{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/"), log: logger}, nil
}

// Dir returns the directory files are stored in.
func (f *FS) Dir() string {
	return f.dir
}

// Store writes the file under "{ownerID}_{filename}" and returns its URL.
// The extension is checked before anything touches disk.
func (f *FS) Store(ownerID int64, filename string, r io.Reader) (string, error) {
	// Strip any client-supplied directory components.
	base := filepath.Base(filepath.Clean(filename))
	if base == "." || base == string(filepath.Separator) {
		return "", ErrRejectedExtension
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(base), "."))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", ErrRejectedExtension
	}

	name := fmt.Sprintf("%d_%s", ownerID, base)
	dst, err := os.Create(filepath.Join(f.dir, name))
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	f.log.Debug().Str("file", name).Int64("owner_id", ownerID).Msg("blob stored")
	return f.baseURL + "/" + path.Base(name), nil
}
