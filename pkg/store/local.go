package store

import (
	"context"
	"net/url"
	"os"
	"path/filepath"

	"github.com/matzehuels/fabricpdf/pkg/errors"
)

// Local stores artifacts as files in a directory.
type Local struct {
	dir     string
	baseURL string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
// If baseURL is empty, Store returns file:// URLs.
func NewLocal(dir, baseURL string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "local store directory")
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create local store directory")
	}
	return &Local{dir: abs, baseURL: baseURL}, nil
}

// Name implements Store.
func (l *Local) Name() string { return "local" }

// Dir returns the storage directory.
func (l *Local) Dir() string { return l.dir }

// Store writes the artifact to <dir>/<name>.
func (l *Local) Store(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store")
	}
	if a.Name == "" {
		a.Name = NewArtifactName("bin")
	}
	if err := errors.ValidateArtifactID(a.Name); err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store")
	}

	path := filepath.Join(l.dir, a.Name)
	tmp, err := os.CreateTemp(l.dir, ".upload-*")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store")
	}
	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store: write")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store: write")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", errors.Wrap(errors.ErrCodeStore, err, "local store: rename")
	}

	if l.baseURL == "" {
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String(), nil
	}
	return artifactURL(l.baseURL, a.Name), nil
}

// Open implements Opener.
func (l *Local) Open(ctx context.Context, id string) (*Object, error) {
	if err := errors.ValidateArtifactID(id); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotFound, err, "artifact %q not found", id)
	}
	f, err := os.Open(filepath.Join(l.dir, id))
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeNotFound, "artifact %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open artifact %q", id)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "stat artifact %q", id)
	}
	return &Object{
		ReadCloser:  f,
		Name:        id,
		ContentType: contentTypeOf(id),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

var (
	_ Store  = (*Local)(nil)
	_ Opener = (*Local)(nil)
)
