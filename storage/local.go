package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	errs "github.com/infieles/reportes/errors"
	"github.com/infieles/reportes/logger"
)

// LocalStore writes uploads to a directory served by the API itself.
type LocalStore struct {
	base
	root          string
	publicBaseURL string
}

func NewLocalStore(root, publicBaseURL string, opts Options, log logger.LoggerService) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errs.Storage(err, "failed to create upload directory")
	}
	return &LocalStore{
		base:          newBase(opts, log.Named("storage")),
		root:          root,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Save(ctx context.Context, r io.Reader, originalName string) (string, error) {
	name, body, err := s.prepare(r, originalName)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.root, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", errs.Storage(err, "error al guardar el archivo")
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return "", errs.Storage(err, "error al guardar el archivo")
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return "", errs.Storage(err, "error al guardar el archivo")
	}

	s.log.Debug("stored %s as %s", originalName, name)
	return s.publicBaseURL + "/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) {
	name := refName(ref)
	if name == "" {
		s.log.Warn("ignoring delete of unusable reference %q", ref)
		return
	}
	err := os.Remove(filepath.Join(s.root, name))
	switch {
	case err == nil:
		s.log.Debug("removed %s", name)
	case os.IsNotExist(err):
		s.log.Debug("file %s already gone", name)
	default:
		s.log.Warn("could not remove %s: %v", name, err)
	}
}
