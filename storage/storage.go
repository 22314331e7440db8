// Package storage keeps the photos uploaded with a report. A FileStore hands
// back a public URL for every file it saves; that URL is what gets persisted
// as the evidence reference and what Delete later receives.
package storage

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/infieles/reportes/config"
	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/logger"
)

type FileStore interface {
	// IsAllowed reports whether filename carries an accepted extension.
	IsAllowed(filename string) bool
	Save(ctx context.Context, r io.Reader, originalName string) (string, error)
	// Delete removes the file behind ref. Failures are logged and dropped.
	Delete(ctx context.Context, ref string)
}

type Options struct {
	AllowedExtensions []string
	StripMetadata     bool
}

func OptionsFromConfig(c *config.Config) Options {
	return Options{
		AllowedExtensions: c.AllowedExtensions,
		StripMetadata:     c.StripImageMetadata,
	}
}

// New builds the store selected by STORAGE_DRIVER.
func New(ctx context.Context, c *config.Config, log logger.LoggerService) (FileStore, error) {
	switch c.StorageDriver {
	case config.StorageS3:
		return NewS3Store(ctx, c, log)
	default:
		return NewLocalStore(c.UploadDir, c.PublicBaseURL, OptionsFromConfig(c), log)
	}
}

// Extension returns the lower-cased extension of filename without the dot,
// or "" when there is none.
func Extension(filename string) string {
	ext := filepath.Ext(strings.TrimSpace(filename))
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// GenerateName returns a collision-free stored name: 32 hex characters from
// a random uuid followed by ext.
func GenerateName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
}

// refName extracts the stored file name from a reference. It yields "" for
// anything that is not a plain final segment.
func refName(ref string) string {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	name := path.Base(strings.TrimSpace(ref))
	switch name {
	case "", ".", "..", "/":
		return ""
	}
	return name
}

type base struct {
	allowed  map[string]struct{}
	sanitize bool
	log      logger.LoggerService
}

func newBase(opts Options, log logger.LoggerService) base {
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	return base{allowed: allowed, sanitize: opts.StripMetadata, log: log}
}

func (b *base) IsAllowed(filename string) bool {
	ext := Extension(filename)
	if ext == "" {
		return false
	}
	_, ok := b.allowed[ext]
	return ok
}

// prepare checks the upload, picks its stored name and, when enabled,
// re-encodes the image without metadata.
func (b *base) prepare(r io.Reader, originalName string) (string, io.Reader, error) {
	if !b.IsAllowed(originalName) {
		return "", nil, errs.Validation("tipo de archivo no permitido")
	}
	ext := Extension(originalName)
	body := r
	if b.sanitize {
		clean, err := StripMetadata(r, ext)
		if err != nil {
			return "", nil, err
		}
		body = clean
	}
	return GenerateName(ext), body, nil
}
